package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/casetree-backend/internal/observability"
)

// unobserved routes are scraped or polled far more often than they are used.
var unobserved = map[string]bool{
	"/metrics":     true,
	"/healthcheck": true,
}

// Metrics records API request counts, latency and in-flight requests. Requests
// that match no route share the "unmatched" label to keep cardinality bounded.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if unobserved[route] {
			c.Next()
			return
		}
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
