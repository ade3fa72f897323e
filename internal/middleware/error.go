package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/agenda-api/pkg/httputil"
	"github.com/jwalitptl/agenda-api/pkg/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		lastErr := c.Errors.Last().Err
		status, resp := httputil.ErrorResponse(lastErr)
		resp.RequestID = c.GetString(ContextRequestID)

		fields := []interface{}{
			"request_id", resp.RequestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
		}
		if status >= http.StatusInternalServerError {
			log.Error(lastErr, "request failed", fields...)
		} else {
			log.Debug("request rejected", append(fields, "error", lastErr.Error())...)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, resp)
	}
}
