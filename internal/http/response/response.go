package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/casetree-backend/internal/platform/apierr"
)

const internalMessage = "internal server error"

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes err with the status and code it carries. Server-side
// failures never leak their message.
func RespondError(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	status := apierr.StatusOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = internalMessage
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    apierr.CodeOf(err),
		},
	})
}

// RespondStatus writes an error body for failures detected before any service
// call, e.g. a malformed query parameter.
func RespondStatus(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
