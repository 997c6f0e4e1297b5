package model

import (
	"context"
	"time"
)

// RateLimiter makes fixed-window allow decisions for the transport edge.
// This is distinct from the in-record rotation policy, which the
// verification service enforces itself.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}

// RateLimitDecision describes the outcome of one Allow call.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}
