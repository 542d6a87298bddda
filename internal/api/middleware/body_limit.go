package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"busbuddy/pkg/response"
)

// BodyLimit 请求体大小限制
// 声明的 Content-Length 超限时直接 413；未声明长度的请求体在读取时截断，
// 由绑定失败路径（handler.badBinding）返回 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.PayloadTooLarge(c)
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
