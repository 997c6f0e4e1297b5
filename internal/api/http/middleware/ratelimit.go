package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veristore/veristore-server/internal/logger"
	"github.com/veristore/veristore-server/internal/model"
)

// RateLimit applies a fixed-window limit per client IP and route. A nil
// limiter or non-positive request budget disables it. Limiter backend
// failures fail open.
type RateLimit struct {
	limiter  model.RateLimiter
	requests int
	window   time.Duration
	logger   *logger.Logger
}

// NewRateLimit creates a RateLimit middleware.
func NewRateLimit(limiter model.RateLimiter, requests int, window time.Duration, logger *logger.Logger) *RateLimit {
	return &RateLimit{limiter: limiter, requests: requests, window: window, logger: logger}
}

// Handle aborts with 429 when the caller exhausted its window budget.
func (m *RateLimit) Handle(c *gin.Context) {
	if m.limiter == nil || m.requests <= 0 {
		c.Next()
		return
	}

	key := "ip:" + c.ClientIP() + ":route:" + c.FullPath()
	decision, err := m.limiter.Allow(c.Request.Context(), key, m.requests, m.window)
	if err != nil {
		m.logger.Error("rate limiter unavailable", "error", err)
		c.Next()
		return
	}

	writeRateLimitHeaders(c, decision)
	if !decision.Allowed {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}
	c.Next()
}

func writeRateLimitHeaders(c *gin.Context, decision model.RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if !decision.ResetAt.IsZero() {
		c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		if !decision.Allowed {
			retryAfter := int64(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
		}
	}
}
