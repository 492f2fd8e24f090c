package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"atrium/internal/shared/logger"
)

// RequestLogging logs one line per request with latency and status.
func RequestLogging(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		switch {
		case status >= 500:
			log.Errorw("request failed", fields...)
		case status >= 400:
			log.Warnw("request rejected", fields...)
		default:
			log.Debugw("request completed", fields...)
		}
	}
}

// Recovery converts panics into 500 responses without killing the process.
func Recovery(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("panic recovered", "error", r, "path", c.Request.URL.Path)
				c.AbortWithStatus(500)
			}
		}()
		c.Next()
	}
}
