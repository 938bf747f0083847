package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/internal/service"
	"github.com/noah-isme/carritos-api/pkg/response"
)

type loanService interface {
	ParseRequest(req service.CreateLoanRequest) (service.NewLoanInput, error)
	Create(ctx context.Context, input service.NewLoanInput) (*models.LoanReceipt, error)
	Return(ctx context.Context, id string) (*models.LoanDetail, error)
	List(ctx context.Context, filter models.LoanFilter) ([]models.LoanDetail, *models.Pagination, error)
	History(ctx context.Context, dni string) ([]models.LoanDetail, error)
	ActiveFor(ctx context.Context, dni string) ([]models.LoanDetail, error)
}

type loanExporter interface {
	LoanHistory(ctx context.Context, dni string, format service.ExportFormat) (*service.ExportFile, error)
}

// LoanHandler exposes the loan engine over HTTP.
type LoanHandler struct {
	loans    loanService
	exporter loanExporter
}

// NewLoanHandler constructs a LoanHandler.
func NewLoanHandler(loans loanService, exporter loanExporter) *LoanHandler {
	return &LoanHandler{loans: loans, exporter: exporter}
}

type loanCreatedResponse struct {
	models.LoanReceipt
	Message string `json:"message"`
}

// List godoc
// @Summary List loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param activo query bool false "Only active loans"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /prestamos [get]
func (h *LoanHandler) List(c *gin.Context) {
	filter := pageFilter(c)
	if active := queryBool(c, "activo"); active != nil {
		filter.ActiveOnly = *active
	}
	h.list(c, filter)
}

// ListActive godoc
// @Summary List active loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /prestamos/activos [get]
func (h *LoanHandler) ListActive(c *gin.Context) {
	filter := pageFilter(c)
	filter.ActiveOnly = true
	h.list(c, filter)
}

func (h *LoanHandler) list(c *gin.Context, filter models.LoanFilter) {
	loans, pagination, err := h.loans.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loans, pagination)
}

// Create godoc
// @Summary Open a loan
// @Description Assigns an available computer to a student or teacher
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateLoanRequest true "Loan payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /prestamos [post]
func (h *LoanHandler) Create(c *gin.Context) {
	var req service.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid loan payload"))
		return
	}
	input, err := h.loans.ParseRequest(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	receipt, err := h.loans.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, loanCreatedResponse{LoanReceipt: *receipt, Message: "Préstamo registrado"})
}

// Return godoc
// @Summary Return a loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /prestamos/{id}/devolver [post]
func (h *LoanHandler) Return(c *gin.Context) {
	loan, err := h.loans.Return(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loan, nil, map[string]interface{}{"message": "Devolución registrada"})
}

// ActiveForBorrower godoc
// @Summary Active loans of a borrower
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param dni path string true "Borrower DNI"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /prestamos/usuario/{dni} [get]
func (h *LoanHandler) ActiveForBorrower(c *gin.Context) {
	loans, err := h.loans.ActiveFor(c.Request.Context(), c.Param("dni"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loans, nil)
}

// History godoc
// @Summary Loan history
// @Description Without dni lists every loan. formato=csv|pdf downloads the history instead of JSON.
// @Tags Loans
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param dni query string false "Borrower DNI"
// @Param formato query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /prestamos/historial [get]
func (h *LoanHandler) History(c *gin.Context) {
	h.history(c, strings.TrimSpace(c.Query("dni")))
}

// HistoryByDNI godoc
// @Summary Loan history of a borrower
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param dni path string true "Borrower DNI"
// @Param formato query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /prestamos/historial/{dni} [get]
func (h *LoanHandler) HistoryByDNI(c *gin.Context) {
	h.history(c, strings.TrimSpace(c.Param("dni")))
}

func (h *LoanHandler) history(c *gin.Context, dni string) {
	if formato := c.Query("formato"); formato != "" {
		format, err := service.ParseExportFormat(formato)
		if err != nil {
			response.Error(c, err)
			return
		}
		file, err := h.exporter.LoanHistory(c.Request.Context(), dni, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, file.Filename, file.ContentType, file.Data)
		return
	}

	if dni == "" {
		h.list(c, pageFilter(c))
		return
	}
	loans, err := h.loans.History(c.Request.Context(), dni)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loans, nil)
}

func pageFilter(c *gin.Context) models.LoanFilter {
	var filter models.LoanFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	return filter
}
