package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/go-petr/pet-wallet/internal/activityservice"
)

// Device stores the client user agent in the request context so that the
// activity log can tell which device attempted an operation.
func Device() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ua := c.Request.UserAgent(); ua != "" {
			c.Request = c.Request.WithContext(activityservice.WithDevice(c.Request.Context(), ua))
		}

		c.Next()
	}
}
