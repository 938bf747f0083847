package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/carritos-api/internal/models"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
	"github.com/noah-isme/carritos-api/pkg/response"
)

// RBAC enforces role-based access control for routes. It must run after JWT.
func RBAC(roles ...models.AdminRole) gin.HandlerFunc {
	allowed := make(map[models.AdminRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}
