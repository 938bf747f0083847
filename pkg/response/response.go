package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/carritos-api/internal/models"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
	"github.com/noah-isme/carritos-api/pkg/logger"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}, meta ...map[string]interface{}) {
	JSON(c, http.StatusOK, data, nil, meta...)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, meta ...map[string]interface{}) {
	JSON(c, http.StatusCreated, data, nil, meta...)
}

// Error sends an error response converting the error to the common structure.
// Server side failures are logged with their cause; the client only sees the generic message.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed",
			zap.String("code", appErr.Code),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// Attachment streams a rendered file as a download.
func Attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// RouteNotFound answers unmatched routes.
func RouteNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error": "Ruta no encontrada",
		"path":  c.Request.URL.Path,
	})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
