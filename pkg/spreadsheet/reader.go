package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row maps a lower-cased header to the trimmed cell value.
type Row map[string]string

// Get returns the value stored under the first header present.
func (r Row) Get(keys ...string) string {
	for _, key := range keys {
		if v, ok := r[key]; ok && v != "" {
			return v
		}
	}
	return ""
}

// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Read parses the first sheet of an .xlsx workbook or a .csv file.
// The first row holds the headers; blank rows are dropped.
func Read(filename string, r io.Reader) ([]Row, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	return toRows(records), nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	records, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return records, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func toRows(records [][]string) []Row {
	if len(records) < 2 {
		return nil
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := Row{}
		for i, cell := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				row[headers[i]] = v
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}
