package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/carritos-api/internal/middleware"
	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/internal/service"
	"github.com/noah-isme/carritos-api/pkg/response"
)

type teacherService interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.Teacher, error)
	Get(ctx context.Context, id string) (*models.Teacher, error)
	GetByDNI(ctx context.Context, dni string) (*models.Teacher, error)
	Create(ctx context.Context, req service.TeacherRequest) (*models.Teacher, error)
	Update(ctx context.Context, id string, req service.TeacherRequest) (*models.Teacher, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error)
}

// TeacherHandler exposes teacher endpoints.
type TeacherHandler struct {
	teachers       teacherService
	maxUploadBytes int64
}

// NewTeacherHandler constructs a TeacherHandler.
func NewTeacherHandler(teachers teacherService, maxUploadBytes int64) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, maxUploadBytes: maxUploadBytes}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name or DNI"
// @Param activo query bool false "Filter by active flag"
// @Success 200 {object} response.Envelope
// @Router /docentes [get]
func (h *TeacherHandler) List(c *gin.Context) {
	filter := models.PersonFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Active: queryBool(c, "activo"),
	}
	teachers, err := h.teachers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(teachers))
	response.JSON(c, http.StatusOK, teachers, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get teacher
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /docentes/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	teacher, err := h.teachers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// GetByDNI godoc
// @Summary Get teacher by DNI
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param dni path string true "National ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /docentes/dni/{dni} [get]
func (h *TeacherHandler) GetByDNI(c *gin.Context) {
	teacher, err := h.teachers.GetByDNI(c.Request.Context(), c.Param("dni"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Create godoc
// @Summary Create teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.TeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /docentes [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var req service.TeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid teacher payload"))
		return
	}
	teacher, err := h.teachers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Update godoc
// @Summary Update teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Param payload body service.TeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /docentes/{id} [put]
func (h *TeacherHandler) Update(c *gin.Context) {
	var req service.TeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid teacher payload"))
		return
	}
	teacher, err := h.teachers.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Delete godoc
// @Summary Delete teacher
// @Tags Teachers
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /docentes/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	if err := h.teachers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Docente eliminado"}, nil)
}

// Import godoc
// @Summary Bulk import teachers
// @Tags Teachers
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true ".xlsx or .csv with dni, nombre, apellido columns"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /docentes/carga-masiva [post]
func (h *TeacherHandler) Import(c *gin.Context) {
	handleImport(c, h.maxUploadBytes, h.teachers.Import)
}
