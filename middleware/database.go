package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Readiness reports whether the store can serve requests.
type Readiness interface {
	Ready() bool
}

// RequireDatabase answers 503 instead of letting a request wait on a
// store that is still connecting or has given up.
func RequireDatabase(r Readiness) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Ready() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "Database unavailable."})
			return
		}
		c.Next()
	}
}
