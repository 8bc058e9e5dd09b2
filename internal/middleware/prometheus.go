package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reliefline/fundledger/internal/metrics"
)

// PrometheusMiddleware times every request and counts it by method, route
// pattern and status. Labelling by route pattern rather than raw path keeps
// cardinality bounded; requests that match no route share one label.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		labels := []string{c.Request.Method, route, strconv.Itoa(c.Writer.Status())}
		metrics.RequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(labels...).Inc()
	}
}
