package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/carritos-api/internal/middleware"
	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/internal/service"
	"github.com/noah-isme/carritos-api/pkg/response"
)

type computerService interface {
	List(ctx context.Context, filter models.ComputerFilter) ([]models.ComputerDetail, error)
	ListAvailable(ctx context.Context) ([]models.ComputerDetail, error)
	Get(ctx context.Context, id string) (*models.ComputerDetail, error)
	Create(ctx context.Context, req service.ComputerRequest) (*models.Computer, error)
	Update(ctx context.Context, id string, req service.ComputerRequest) (*models.Computer, error)
	Delete(ctx context.Context, id string) error
}

// ComputerHandler wires computer services to HTTP routes.
type ComputerHandler struct {
	computers computerService
}

// NewComputerHandler constructs a ComputerHandler.
func NewComputerHandler(computers computerService) *ComputerHandler {
	return &ComputerHandler{computers: computers}
}

// List godoc
// @Summary List computers
// @Tags Computers
// @Produce json
// @Security BearerAuth
// @Param id_carro query string false "Filter by cart"
// @Param estado query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /computadoras [get]
func (h *ComputerHandler) List(c *gin.Context) {
	filter := models.ComputerFilter{
		CartID: strings.TrimSpace(c.Query("id_carro")),
		Status: models.ComputerStatus(strings.TrimSpace(c.Query("estado"))),
	}
	computers, err := h.computers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(computers))
	response.JSON(c, http.StatusOK, computers, nil, middleware.ExtractMeta(c))
}

// ListAvailable godoc
// @Summary List available computers
// @Tags Computers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /computadoras/disponibles [get]
func (h *ComputerHandler) ListAvailable(c *gin.Context) {
	computers, err := h.computers.ListAvailable(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, computers, nil)
}

// Get godoc
// @Summary Get computer detail
// @Tags Computers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Computer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /computadoras/{id} [get]
func (h *ComputerHandler) Get(c *gin.Context) {
	computer, err := h.computers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, computer, nil)
}

// Create godoc
// @Summary Register computer
// @Tags Computers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ComputerRequest true "Computer payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /computadoras [post]
func (h *ComputerHandler) Create(c *gin.Context) {
	var req service.ComputerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid computer payload"))
		return
	}
	computer, err := h.computers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, computer)
}

// Update godoc
// @Summary Update computer
// @Description Loaned computers keep status prestada until the loan is returned
// @Tags Computers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Computer ID"
// @Param payload body service.ComputerRequest true "Computer payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /computadoras/{id} [put]
func (h *ComputerHandler) Update(c *gin.Context) {
	var req service.ComputerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid computer payload"))
		return
	}
	computer, err := h.computers.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, computer, nil)
}

// Delete godoc
// @Summary Delete computer without loan history
// @Tags Computers
// @Security BearerAuth
// @Param id path string true "Computer ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /computadoras/{id} [delete]
func (h *ComputerHandler) Delete(c *gin.Context) {
	if err := h.computers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Computadora eliminada"}, nil)
}
