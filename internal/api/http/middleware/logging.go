package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhijeet1275/image-matcher/internal/logger"
)

// Logging logs method, path, status and duration for each request.
func Logging(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		logger.Info("HTTP request completed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration_ms", duration.Milliseconds())

		if status >= http.StatusInternalServerError && len(c.Errors) > 0 {
			logger.Error("HTTP request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"error", c.Errors.String())
		}
	}
}

// BodyLimit caps the request body size so oversized uploads fail at parse
// time instead of buffering in memory.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
