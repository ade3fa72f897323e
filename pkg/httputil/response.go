package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/agenda-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Code      int         `json:"code,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondWithError renders err with the status its code maps to. Errors
// that are not AppErrors are reported as internal without their text.
func RespondWithError(c *gin.Context, err error) {
	status, resp := ErrorResponse(err)
	resp.RequestID = c.GetString("request_id")
	c.AbortWithStatusJSON(status, resp)
}

func ErrorResponse(err error) (int, Response) {
	appErr, ok := errors.As(err)
	if !ok || appErr.Code == errors.ErrInternal {
		return http.StatusInternalServerError, Response{
			Status:  "error",
			Message: "internal server error",
			Code:    int(errors.ErrInternal),
		}
	}
	return appErr.StatusCode(), Response{
		Status:    "error",
		Message:   appErr.Message,
		Code:      int(appErr.Code),
		Retryable: appErr.Retryable(),
	}
}
