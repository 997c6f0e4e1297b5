package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veristore/veristore-server/internal/logger"
)

// Logging logs every HTTP request with its duration and status.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handle logs method, path, duration and status for each request.
func (l *Logging) Handle(c *gin.Context) {
	start := time.Now()

	c.Next()

	duration := time.Since(start)
	status := c.Writer.Status()

	l.logger.Info("http request completed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"duration_ms", duration.Milliseconds(),
		"status", status)

	for _, err := range c.Errors {
		l.logger.Error("http request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err.Error())
	}
}
