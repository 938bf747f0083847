package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a landscape tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
// Text is translated to cp1252 so accented names print with the core fonts.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(data.Headers))

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, 8, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.AddPage()
	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range data.Rows {
		if pdf.GetY()+7 > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(truncate(row[h], colWidth)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate keeps a cell value roughly within its column at 8pt.
func truncate(value string, width float64) string {
	limit := int(width / 1.6)
	runes := []rune(value)
	if limit < 4 || len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
