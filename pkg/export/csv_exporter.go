package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// utf8BOM lets spreadsheet tools detect the encoding of exported names.
const utf8BOM = "\ufeff"

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct {
	bom bool
}

// NewCSVExporter builds a CSV exporter that prefixes output with a UTF-8 BOM.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{bom: true}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	if e.bom {
		buf.WriteString(utf8BOM)
	}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	record := make([]string, len(data.Headers))
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
