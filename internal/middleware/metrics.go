package middleware

import (
	"time"

	"sosstock/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request count and latency per route template, so
// /v1/orders/:id is one series regardless of the id.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
