package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "meetingd/internal/platform/errors"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewRouter returns a gin engine with recovery and request logging through logger.
func NewRouter(logger logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	return router
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(started).String(),
		}).Debug("http request")
	}
}

// RespondError renders err as {"error": {...}} with the status of its code.
func RespondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	body := errorBody{Code: string(code), Message: err.Error()}
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		body.Message = coded.Message
	}
	if accepted := apperrors.Accepted(err); accepted != nil {
		body.Details = map[string]any{"accepted": accepted}
	}
	c.AbortWithStatusJSON(code.HTTPStatus(), gin.H{"error": body})
}

// BindJSON decodes the request body, answering 400 on malformed input.
func BindJSON(c *gin.Context, target any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(target); err != nil {
		RespondError(c, apperrors.Wrap(apperrors.CodeInvalidInput, "malformed request body", err))
		return false
	}
	return true
}

// Health answers liveness checks.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
