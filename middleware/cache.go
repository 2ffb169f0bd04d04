package middleware

import "github.com/gin-gonic/gin"

// CacheControlMiddleware sets Cache-Control on every response of the group,
// e.g. "no-store" for live note data.
func CacheControlMiddleware(directive string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", directive)
		c.Next()
	}
}
