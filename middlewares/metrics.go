package middlewares

import (
	"strconv"
	"time"

	"github.com/Churchly/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request count, latency and in-flight gauge. Paths are
// labelled with the route template so ids don't explode cardinality.
func Metrics(c *gin.Context) {
	if c.Request.URL.Path == "/metrics" {
		c.Next()
		return
	}

	start := time.Now()
	metrics.HTTPInFlight.Inc()
	defer metrics.HTTPInFlight.Dec()

	c.Next()

	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}

	metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	metrics.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
}
