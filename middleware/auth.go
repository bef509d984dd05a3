package middleware

import (
	"tripmind/auth"

	"github.com/gin-gonic/gin"
)

const UserIDKey = "userId"

// TokenParser verifies a raw bearer token.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// OptionalAuth sets "userId" when the request carries a valid bearer
// token. Requests without one, or with an invalid one, pass through
// anonymously; no route requires authentication.
func OptionalAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := auth.BearerToken(c.GetHeader("Authorization")); raw != "" {
			if claims, err := tokens.Parse(raw); err == nil && claims.UserID != "" {
				c.Set(UserIDKey, claims.UserID)
			}
		}
		c.Next()
	}
}
