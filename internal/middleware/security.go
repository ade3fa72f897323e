package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets the headers a JSON API needs. API responses carry
// per-user data, so nothing is cacheable by intermediaries.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
