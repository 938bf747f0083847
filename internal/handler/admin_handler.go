package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/internal/service"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
	"github.com/noah-isme/carritos-api/pkg/response"
)

type adminService interface {
	List(ctx context.Context) ([]models.Admin, error)
	Create(ctx context.Context, req service.CreateAdminRequest) (*models.Admin, error)
	Deactivate(ctx context.Context, actorID, id string) error
	ResetPassword(ctx context.Context, id string, req service.ResetPasswordRequest) error
}

// AdminHandler exposes administrator management endpoints.
type AdminHandler struct {
	admins adminService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(admins adminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

// List godoc
// @Summary List administrators
// @Tags Admins
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	admins, err := h.admins.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins, nil)
}

// Create godoc
// @Summary Create administrator
// @Tags Admins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateAdminRequest true "Admin payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admins [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req service.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid admin payload"))
		return
	}
	admin, err := h.admins.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admin)
}

// Deactivate godoc
// @Summary Deactivate administrator
// @Tags Admins
// @Security BearerAuth
// @Param id path string true "Admin ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admins/{id} [delete]
func (h *AdminHandler) Deactivate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.admins.Deactivate(c.Request.Context(), claims.AdminID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Administrador desactivado"}, nil)
}

// ResetPassword godoc
// @Summary Reset administrator password
// @Tags Admins
// @Accept json
// @Security BearerAuth
// @Param id path string true "Admin ID"
// @Param payload body service.ResetPasswordRequest true "New password"
// @Success 200 {object} response.Envelope
// @Router /admins/{id}/reset-password [post]
func (h *AdminHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid password payload"))
		return
	}
	if err := h.admins.ResetPassword(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Contraseña actualizada"}, nil)
}
