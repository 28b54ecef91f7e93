package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oncoward/ward-api/internal/service"
)

// Metrics records request count and latency per route. The route template
// is used as the path label so IDs do not explode cardinality.
func Metrics(metrics *service.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
