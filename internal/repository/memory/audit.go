package memory

import (
	"context"
	"sync"
	"time"

	"github.com/veristore/veristore-server/internal/model"
)

var _ model.AuditStore = (*AuditRepository)(nil)

// AuditRepository is a process-local append-only audit event store.
type AuditRepository struct {
	mu     sync.RWMutex
	events []model.AuditEvent
}

// NewAuditRepository creates an empty in-memory audit store.
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Append(_ context.Context, event model.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	return nil
}

func (r *AuditRepository) ListSince(_ context.Context, since time.Time) ([]model.AuditEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.AuditEvent
	for _, event := range r.events {
		if !event.CreatedAt.Before(since) {
			out = append(out, event)
		}
	}
	return out, nil
}
