package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/carritos-api/internal/middleware"
	"github.com/noah-isme/carritos-api/internal/models"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

func invalidPayload(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func queryBool(c *gin.Context, key string) *bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "true", "1":
		val := true
		return &val
	case "false", "0":
		val := false
		return &val
	}
	return nil
}
