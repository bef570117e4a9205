package in

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meetingd/internal/modules/catalog/dto"
	catalogin "meetingd/internal/modules/catalog/port/in"
	"meetingd/internal/platform/httpapi"
)

type HTTPHandler struct {
	usecase catalogin.Usecase
}

func NewHTTPHandler(usecase catalogin.Usecase) HTTPHandler {
	return HTTPHandler{usecase: usecase}
}

func (h HTTPHandler) Register(group *gin.RouterGroup) {
	group.GET("/sections", h.get)
	group.PUT("/sections", h.put)
}

func (h HTTPHandler) get(c *gin.Context) {
	out, err := h.usecase.GetSections(c.Request.Context(), dto.GetSectionsInput{
		OrganizationID: c.Query("organization_id"),
		TeamID:         c.Query("team_id"),
		MeetingType:    c.DefaultQuery("meeting_type", "weekly"),
	})
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) put(c *gin.Context) {
	var input dto.SaveSectionsInput
	if !httpapi.BindJSON(c, &input) {
		return
	}
	out, err := h.usecase.SaveSections(c.Request.Context(), input)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
