package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/carritos-api/internal/models"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
	"github.com/noah-isme/carritos-api/pkg/response"
)

const defaultMaxUploadBytes int64 = 5 << 20

type importFunc func(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error)

// handleImport reads the multipart "file" field and forwards it to the importer.
func handleImport(c *gin.Context, maxBytes int64, importer importFunc) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+(1<<20))

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, invalidPayload(err, "multipart field file is required"))
		return
	}
	if header.Size > maxBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", maxBytes)))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, invalidPayload(err, "uploaded file cannot be read"))
		return
	}
	defer file.Close()

	result, err := importer(c.Request.Context(), header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{
		"message": fmt.Sprintf("%d registros insertados, %d omitidos", result.Inserted, result.Skipped),
	})
}
