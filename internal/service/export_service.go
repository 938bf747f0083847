package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/carritos-api/internal/models"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
	"github.com/noah-isme/carritos-api/pkg/export"
)

// ExportFormat names a downloadable rendering of loan history.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

const exportPageSize = 100

var loanHistoryHeaders = []string{"fecha_inicio", "fecha_fin", "estado", "tipo", "dni", "usuario", "docente_responsable", "computadora", "carro", "observaciones"}

type loanHistorySource interface {
	History(ctx context.Context, dni string) ([]models.LoanDetail, error)
	List(ctx context.Context, filter models.LoanFilter) ([]models.LoanDetail, *models.Pagination, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered document ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders loan history as CSV or PDF.
type ExportService struct {
	loans    loanHistorySource
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(loans loanHistorySource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		loans:    loans,
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
		location: time.Local,
		now:      time.Now,
	}
}

// ParseExportFormat validates the formato query value.
func ParseExportFormat(value string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(value))) {
	case ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "formato must be csv or pdf")
}

// LoanHistory renders the history of one borrower, or every loan when dni is empty.
func (s *ExportService) LoanHistory(ctx context.Context, dni string, format ExportFormat) (*ExportFile, error) {
	dni = strings.TrimSpace(dni)
	loans, err := s.collect(ctx, dni)
	if err != nil {
		return nil, err
	}

	dataset := loanDataset(loans, s.location)
	title := "Historial de préstamos"
	base := "historial-prestamos"
	if dni != "" {
		title += " - DNI " + dni
		base += "-" + dni
	}
	base += "-" + s.now().In(s.location).Format("20060102")

	file := &ExportFile{}
	switch format {
	case ExportFormatCSV:
		file.Data, err = s.csv.Render(dataset)
		file.ContentType = "text/csv; charset=utf-8"
		file.Filename = base + ".csv"
	case ExportFormatPDF:
		file.Data, err = s.pdf.Render(dataset, title)
		file.ContentType = "application/pdf"
		file.Filename = base + ".pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "formato must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render loan history")
	}

	s.logger.Info("loan history exported",
		zap.String("format", string(format)),
		zap.String("dni", dni),
		zap.Int("rows", len(loans)),
	)
	return file, nil
}

func (s *ExportService) collect(ctx context.Context, dni string) ([]models.LoanDetail, error) {
	if dni != "" {
		return s.loans.History(ctx, dni)
	}
	var all []models.LoanDetail
	for page := 1; ; page++ {
		loans, pagination, err := s.loans.List(ctx, models.LoanFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, loans...)
		if len(loans) == 0 || len(all) >= pagination.TotalCount {
			return all, nil
		}
	}
}

func loanDataset(loans []models.LoanDetail, loc *time.Location) export.Dataset {
	data := export.Dataset{Headers: loanHistoryHeaders}
	for _, loan := range loans {
		ended := ""
		if loan.EndedAt != nil {
			ended = loan.EndedAt.In(loc).Format("2006-01-02 15:04")
		}
		data.Rows = append(data.Rows, map[string]string{
			"fecha_inicio":        loan.StartedAt.In(loc).Format("2006-01-02 15:04"),
			"fecha_fin":           ended,
			"estado":              string(loan.Status),
			"tipo":                string(loan.BorrowerKind),
			"dni":                 deref(loan.DNI),
			"usuario":             strings.TrimSpace(deref(loan.FirstName) + " " + deref(loan.LastName)),
			"docente_responsable": deref(loan.SupervisorName),
			"computadora":         loan.InventoryCode,
			"carro":               deref(loan.CartName),
			"observaciones":       deref(loan.Notes),
		})
	}
	return data
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
