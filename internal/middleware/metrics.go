package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-metrics-api/internal/service"
)

// Metrics records one HTTP observation per request. The route template
// is preferred over the raw path so /gpa/history?user_id=x and friends
// collapse into one label.
func Metrics(instr *service.InstrumentationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if instr == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		instr.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
