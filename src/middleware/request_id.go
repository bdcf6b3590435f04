package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, reusing the caller's when given.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(models.CtxKeyRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
