package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/carritos-api/pkg/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type metricsExporter interface {
	Handler() http.Handler
}

// HealthHandler exposes liveness, readiness and Prometheus endpoints.
type HealthHandler struct {
	db      Pinger
	metrics metricsExporter
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db Pinger, metrics metricsExporter) *HealthHandler {
	return &HealthHandler{db: db, metrics: metrics}
}

// Health responds with a generic OK payload for liveness probes.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready pings the database.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		logger.FromGin(c).Warn("readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "database": "up"})
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *HealthHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
