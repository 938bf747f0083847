package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPObserver records request metrics.
type HTTPObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// Metrics returns middleware that captures request metrics using the provided observer.
// Unmatched routes are grouped under one label.
func Metrics(observer HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if observer == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		observer.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
