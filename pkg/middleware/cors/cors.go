package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// New returns a CORS middleware honouring a list of allowed origins. An empty list or "*" allows any origin.
func New(allowedOrigins []string) gin.HandlerFunc {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			allowAll = true
			continue
		}
		if origin != "" {
			originSet[origin] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originSet[strings.TrimRight(origin, "/")]; ok || allowAll {
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Credentials", "true")
			}
		}

		header.Add("Vary", "Origin")
		header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, X-Request-ID")
		header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		header.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		header.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
