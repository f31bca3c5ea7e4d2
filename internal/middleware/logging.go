package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"avenue/internal/logger"
	"avenue/internal/metrics"
)

// Logging logs one line per request and records it in m. Routes are
// labelled by their pattern so ids do not explode metric cardinality.
func Logging(logg *logger.Logger, m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Observe(route, c.Request.Method, status, elapsed)

		if logg == nil {
			return
		}
		ctx := logg.WithFields(c.Request.Context(), map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       route,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
		})
		if len(c.Errors) > 0 {
			logg.Error(ctx, "request.complete", c.Errors.Last())
			return
		}
		logg.Info(ctx, "request.complete")
	}
}
