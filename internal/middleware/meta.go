package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// WithResponseMeta initialises response metadata storage and records processing time.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{"started_at": time.Now()})
		c.Next()
	}
}

// ExtractMeta returns response metadata for the envelope, including elapsed processing time.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	stored, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	meta := make(map[string]interface{}, len(stored))
	for k, v := range stored {
		if started, ok := v.(time.Time); ok && k == "started_at" {
			meta["processing_time_ms"] = time.Since(started).Milliseconds()
			continue
		}
		meta[k] = v
	}
	return meta
}

// SetMeta adds a key to the response metadata.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if current, exists := c.Get(responseMetaKey); exists {
		if stored, ok := current.(map[string]interface{}); ok {
			stored[key] = value
			return
		}
	}
	c.Set(responseMetaKey, map[string]interface{}{key: value})
}
