package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/carritos-api/pkg/logger"
)

// Audit logs every successful mutating request with the acting admin.
func Audit() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("resource_id", c.Param("id")),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
		}
		if claims, ok := Claims(c); ok {
			fields = append(fields, zap.String("admin_id", claims.AdminID), zap.String("admin", claims.Username))
		}
		logger.FromGin(c).Info("audit", fields...)
	}
}
