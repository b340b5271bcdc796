package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/littlelemon-backend/pkg/metrics"
)

// Metrics records every request against its route template
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.Observe(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
