package middleware

import (
	"net/http"

	"tradocs/models"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
)

// RequireRoles lets through callers holding one of roles. Admins pass every gate.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles)+1)
	for _, r := range roles {
		allowed[r] = true
	}
	allowed[models.RoleAdmin] = true

	return func(c *gin.Context) {
		role := CurrentRole(c)
		if !allowed[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{
				Message: "Forbidden",
				Details: "your role cannot access this resource",
			})
			return
		}
		c.Next()
	}
}
