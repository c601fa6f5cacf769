package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learnpulse/learnpulse-backend/internal/observability"
)

const (
	unmatchedRoute = "unmatched"
	metricsRoute   = "/metrics"
)

// streamRoutes stay open for the life of a browser tab. They are counted
// but kept out of the latency histogram and the in-flight gauge.
var streamRoutes = map[string]bool{
	"/api/sse/stream": true,
}

// Metrics records request counts and latency labelled by route template.
// Requests that match no route share one label so scanners cannot grow the
// series set.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		switch {
		case route == metricsRoute:
			c.Next()
			return
		case route == "":
			route = unmatchedRoute
		case streamRoutes[route]:
			c.Next()
			m.CountAPI(c.Request.Method, route, c.Writer.Status())
			return
		}

		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()
		c.Next()
		m.ObserveAPI(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
