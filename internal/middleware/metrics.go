package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"creditocr/internal/metrics"
)

// Metrics records request count and latency per matched route. It must wrap
// Recovery so that recovered panics are counted with their 500 status.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.StartRequest()
		defer func() {
			m.FinishRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
		}()
		c.Next()
	}
}
