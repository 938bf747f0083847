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

type studentService interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.Student, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	GetByDNI(ctx context.Context, dni string) (*models.Student, error)
	Create(ctx context.Context, req service.StudentRequest) (*models.Student, error)
	Update(ctx context.Context, id string, req service.StudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students       studentService
	maxUploadBytes int64
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(students studentService, maxUploadBytes int64) *StudentHandler {
	return &StudentHandler{students: students, maxUploadBytes: maxUploadBytes}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name or DNI"
// @Param activo query bool false "Filter by active flag"
// @Success 200 {object} response.Envelope
// @Router /alumnos [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.PersonFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Active: queryBool(c, "activo"),
	}
	students, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(students))
	response.JSON(c, http.StatusOK, students, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /alumnos/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// GetByDNI godoc
// @Summary Get student by DNI
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param dni path string true "National ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /alumnos/dni/{dni} [get]
func (h *StudentHandler) GetByDNI(c *gin.Context) {
	student, err := h.students.GetByDNI(c.Request.Context(), c.Param("dni"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /alumnos [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid student payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body service.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /alumnos/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid student payload"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /alumnos/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Alumno eliminado"}, nil)
}

// Import godoc
// @Summary Bulk import students
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true ".xlsx or .csv with dni, nombre, apellido columns"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /alumnos/carga-masiva [post]
func (h *StudentHandler) Import(c *gin.Context) {
	handleImport(c, h.maxUploadBytes, h.students.Import)
}
