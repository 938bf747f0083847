package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/carritos-api/internal/models"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
	"github.com/noah-isme/carritos-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Verify(ctx context.Context, claims *models.JWTClaims) (*models.AdminInfo, error)
	Logout(ctx context.Context, claims *models.JWTClaims) (bool, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate administrator
// @Description Authenticate an administrator by username and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Verify godoc
// @Summary Verify current token
// @Description Returns the authenticated administrator when the token is still valid
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	admin, err := h.service.Verify(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"valid": true, "admin": admin}, nil)
}

// Logout godoc
// @Summary Logout current session
// @Description Revokes the current token when a revocation store is configured
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	revoked, err := h.service.Logout(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Sesión cerrada", "revoked": revoked}, nil)
}
