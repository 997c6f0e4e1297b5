// Package context carries the caller identity through request contexts.
package context

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const callerIDKey ctxKey = iota

// Manager implements model.ContextManager over request contexts.
type Manager struct{}

// NewManager creates a context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetCallerIDToContext returns a context carrying the caller identity.
func (m *Manager) SetCallerIDToContext(ctx context.Context, callerID uuid.UUID) context.Context {
	return context.WithValue(ctx, callerIDKey, callerID)
}

// GetCallerIDFromContext extracts the caller identity, reporting whether
// one was set.
func (m *Manager) GetCallerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	callerID, ok := ctx.Value(callerIDKey).(uuid.UUID)
	if !ok || callerID == uuid.Nil {
		return uuid.Nil, false
	}
	return callerID, true
}
