package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/carritos-api/internal/middleware"
	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/internal/service"
	"github.com/noah-isme/carritos-api/pkg/response"
)

type cartService interface {
	List(ctx context.Context) ([]models.CartDetail, error)
	Get(ctx context.Context, id string) (*models.CartDetail, error)
	Create(ctx context.Context, req service.CartRequest) (*models.Cart, error)
	Update(ctx context.Context, id string, req service.CartRequest) (*models.Cart, error)
	Delete(ctx context.Context, id string) error
}

// CartHandler wires cart services to HTTP routes.
type CartHandler struct {
	carts cartService
}

// NewCartHandler constructs a CartHandler.
func NewCartHandler(carts cartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// List godoc
// @Summary List carts
// @Tags Carts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /carros [get]
func (h *CartHandler) List(c *gin.Context) {
	carts, err := h.carts.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(carts))
	response.JSON(c, http.StatusOK, carts, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get cart detail
// @Tags Carts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /carros/{id} [get]
func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cart, nil)
}

// Create godoc
// @Summary Create cart
// @Tags Carts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CartRequest true "Cart payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /carros [post]
func (h *CartHandler) Create(c *gin.Context) {
	var req service.CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid cart payload"))
		return
	}
	cart, err := h.carts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cart)
}

// Update godoc
// @Summary Update cart
// @Tags Carts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Param payload body service.CartRequest true "Cart payload"
// @Success 200 {object} response.Envelope
// @Router /carros/{id} [put]
func (h *CartHandler) Update(c *gin.Context) {
	var req service.CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid cart payload"))
		return
	}
	cart, err := h.carts.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cart, nil)
}

// Delete godoc
// @Summary Delete empty cart
// @Tags Carts
// @Security BearerAuth
// @Param id path string true "Cart ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /carros/{id} [delete]
func (h *CartHandler) Delete(c *gin.Context) {
	if err := h.carts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Carro eliminado"}, nil)
}
