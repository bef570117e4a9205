package in

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	sessiondto "meetingd/internal/modules/session/dto"
	sessionin "meetingd/internal/modules/session/port/in"
	apperrors "meetingd/internal/platform/errors"
	"meetingd/internal/platform/httpapi"
)

const userHeader = "X-User-ID"

type HTTPHandler struct {
	usecase sessionin.Usecase
}

func NewHTTPHandler(usecase sessionin.Usecase) HTTPHandler {
	return HTTPHandler{usecase: usecase}
}

func (h HTTPHandler) Register(group *gin.RouterGroup) {
	sessions := group.Group("/sessions")
	sessions.POST("", h.start)
	sessions.GET("/active", h.active)
	sessions.GET("/:id", h.status)
	sessions.POST("/:id/pause", h.pause)
	sessions.POST("/:id/resume", h.resume)
	sessions.POST("/:id/sections/start", h.startSection)
	sessions.POST("/:id/sections/end", h.endSection)
	sessions.POST("/:id/end", h.end)
}

type actorRequest struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason"`
}

type sectionRequest struct {
	SectionID      string `json:"section_id"`
	SectionIDCamel string `json:"sectionId"`
}

func (r sectionRequest) id() string {
	if strings.TrimSpace(r.SectionID) != "" {
		return r.SectionID
	}
	return r.SectionIDCamel
}

type endRequest struct {
	ActorID    string                      `json:"actor_id"`
	Conclusion *sessiondto.ConclusionInput `json:"conclusion"`
}

func actor(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return c.GetHeader(userHeader)
}

func (h HTTPHandler) start(c *gin.Context) {
	var input sessiondto.StartInput
	if !httpapi.BindJSON(c, &input) {
		return
	}
	input.FacilitatorID = actor(c, input.FacilitatorID)
	out, err := h.usecase.Start(c.Request.Context(), input)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	status := http.StatusCreated
	if out.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, out)
}

func (h HTTPHandler) active(c *gin.Context) {
	teamID := c.Query("team_id")
	if teamID == "" {
		httpapi.RespondError(c, apperrors.New(apperrors.CodeInvalidInput, "team_id is required"))
		return
	}
	out, err := h.usecase.GetActive(c.Request.Context(), sessiondto.ActiveInput{
		TeamID:      teamID,
		MeetingType: c.DefaultQuery("meeting_type", "weekly"),
	})
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) status(c *gin.Context) {
	out, err := h.usecase.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) pause(c *gin.Context) {
	var body actorRequest
	if !httpapi.BindJSON(c, &body) {
		return
	}
	out, err := h.usecase.Pause(c.Request.Context(), sessiondto.PauseInput{
		SessionID: c.Param("id"),
		ActorID:   actor(c, body.ActorID),
		Reason:    body.Reason,
	})
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) resume(c *gin.Context) {
	var body actorRequest
	if !httpapi.BindJSON(c, &body) {
		return
	}
	out, err := h.usecase.Resume(c.Request.Context(), sessiondto.ResumeInput{
		SessionID: c.Param("id"),
		ActorID:   actor(c, body.ActorID),
	})
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) sectionInput(c *gin.Context) (sessiondto.SectionInput, bool) {
	var body sectionRequest
	if !httpapi.BindJSON(c, &body) {
		return sessiondto.SectionInput{}, false
	}
	if strings.TrimSpace(body.id()) == "" {
		httpapi.RespondError(c, apperrors.New(apperrors.CodeInvalidInput, "section_id is required"))
		return sessiondto.SectionInput{}, false
	}
	return sessiondto.SectionInput{SessionID: c.Param("id"), SectionID: body.id()}, true
}

func (h HTTPHandler) startSection(c *gin.Context) {
	input, ok := h.sectionInput(c)
	if !ok {
		return
	}
	out, err := h.usecase.StartSection(c.Request.Context(), input)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) endSection(c *gin.Context) {
	input, ok := h.sectionInput(c)
	if !ok {
		return
	}
	out, err := h.usecase.EndSection(c.Request.Context(), input)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) end(c *gin.Context) {
	var body endRequest
	if !httpapi.BindJSON(c, &body) {
		return
	}
	out, err := h.usecase.End(c.Request.Context(), sessiondto.EndInput{
		SessionID:  c.Param("id"),
		ActorID:    actor(c, body.ActorID),
		Conclusion: body.Conclusion,
	})
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
