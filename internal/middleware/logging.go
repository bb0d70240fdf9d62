package middleware

import (
	"time"

	"alumniverse/pkg/log"

	"github.com/gin-gonic/gin"
)

// RequestLogger 是一个 Gin 中间件，用于记录每次请求的访问日志。
// 聊天走 WebSocket 长连接，不经过此中间件。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", latency.String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
}
