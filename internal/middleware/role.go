package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/heilen-retreats/backend/pkg/response"
)

// currentRole reads the role set by JWT. ok is false when the request
// never went through the auth middleware.
func currentRole(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextUserRole)
	if !exists {
		return "", false
	}
	role, isString := v.(string)
	return role, isString
}

// RequireRole returns a middleware that allows only the given roles.
// It must run after JWT.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role, ok := currentRole(c)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
