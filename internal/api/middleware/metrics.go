package middleware

import (
	"chatdraft/backend/internal/metrics"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics returns middleware that records Prometheus metrics. Paths are
// labeled with the matched route to keep cardinality low.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}
