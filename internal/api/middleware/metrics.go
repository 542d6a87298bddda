package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"busbuddy/pkg/metrics"
)

// Metrics HTTP 请求计数与耗时；path 取路由模板，避免按 ID 产生高基数标签
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
