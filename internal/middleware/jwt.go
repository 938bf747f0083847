package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/carritos-api/internal/models"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
	"github.com/noah-isme/carritos-api/pkg/response"
)

// ContextAdminKey is the gin context key storing JWT claims.
const ContextAdminKey = "currentAdmin"

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed bearer token"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Next()
	}
}

// Claims returns the authenticated admin claims set by JWT.
func Claims(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextAdminKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
