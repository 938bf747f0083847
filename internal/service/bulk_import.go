package service

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/pkg/database"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
	"github.com/noah-isme/carritos-api/pkg/spreadsheet"
)

type rowInserter func(ctx context.Context, row spreadsheet.Row) error

// readImport parses an uploaded spreadsheet and rejects files without data rows.
func readImport(filename string, r io.Reader) ([]spreadsheet.Row, error) {
	rows, err := spreadsheet.Read(filename, r)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrUnsupportedFormat) {
			return nil, validationError(err, "file must be .xlsx or .csv")
		}
		return nil, validationError(err, "file is empty or malformed")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty or malformed")
	}
	return rows, nil
}

// importRows inserts rows one by one. Rows missing dni, nombre or apellido are skipped,
// duplicates are skipped silently and any other failure is logged before moving on.
func importRows(ctx context.Context, logger *zap.Logger, entity string, rows []spreadsheet.Row, insert rowInserter) *models.ImportResult {
	result := &models.ImportResult{Total: len(rows)}
	for i, row := range rows {
		if row.Get("dni") == "" || row.Get("nombre") == "" || row.Get("apellido") == "" {
			result.Skipped++
			continue
		}
		if err := insert(ctx, row); err != nil {
			result.Skipped++
			if !database.IsUniqueViolation(err) {
				logger.Warn("bulk import row failed",
					zap.String("entity", entity),
					zap.Int("row", i+2),
					zap.String("dni", row.Get("dni")),
					zap.Error(err),
				)
			}
			continue
		}
		result.Inserted++
	}
	logger.Info("bulk import completed",
		zap.String("entity", entity),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
	)
	return result
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
