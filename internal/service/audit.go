package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veristore/veristore-server/internal/logger"
	"github.com/veristore/veristore-server/internal/model"
)

// Audit emits the store's structured notifications. Emission is
// fire-and-forget: sink failures are logged, never surfaced into the
// operation result.
type Audit struct {
	store   model.AuditStore
	archive model.Storage
	logger  *logger.Logger
	now     Clock
}

// NewAudit creates an audit emitter. archive may be nil when no object
// storage is configured; Archive then reports an error.
func NewAudit(store model.AuditStore, archive model.Storage, logger *logger.Logger, now Clock) *Audit {
	if now == nil {
		now = time.Now
	}
	return &Audit{
		store:   store,
		archive: archive,
		logger:  logger,
		now:     now,
	}
}

// DataStored notifies that a record was registered.
func (a *Audit) DataStored(ctx context.Context, userName string) {
	a.emit(ctx, model.AuditEventDataStored, userName, "", model.AuditResultSuccess)
}

// DataDeleted notifies that a record was removed.
func (a *Audit) DataDeleted(ctx context.Context, userName string) {
	a.emit(ctx, model.AuditEventDataDeleted, userName, "", model.AuditResultSuccess)
}

// EncryptionKeyChanged notifies that a credential rotation completed.
func (a *Audit) EncryptionKeyChanged(ctx context.Context, userName string) {
	a.emit(ctx, model.AuditEventEncryptionKeyChanged, userName, "", model.AuditResultSuccess)
}

// ChangeCountReduced notifies that a change count was rewritten.
func (a *Audit) ChangeCountReduced(ctx context.Context, userName string) {
	a.emit(ctx, model.AuditEventChangeCountReduced, userName, "", model.AuditResultSuccess)
}

// Error notifies that a call was rejected, carrying the rejection text.
func (a *Audit) Error(ctx context.Context, userName, message string) {
	a.emit(ctx, model.AuditEventError, userName, message, model.AuditResultFailure)
}

// Archive exports all events recorded since the given time as a JSON
// Lines object and returns the object key and event count.
func (a *Audit) Archive(ctx context.Context, since time.Time) (string, int, error) {
	if a.archive == nil {
		return "", 0, fmt.Errorf("no archive storage configured")
	}

	events, err := a.store.ListSince(ctx, since)
	if err != nil {
		return "", 0, fmt.Errorf("failed to list audit events: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			return "", 0, fmt.Errorf("failed to encode audit event: %w", err)
		}
	}

	key := fmt.Sprintf("audit/%s.jsonl", a.now().UTC().Format("20060102T150405Z"))
	if err := a.archive.Upload(ctx, key, &buf); err != nil {
		return "", 0, fmt.Errorf("failed to upload audit archive: %w", err)
	}

	a.logger.Info("audit archive uploaded", "key", key, "events", len(events))
	return key, len(events), nil
}

func (a *Audit) emit(ctx context.Context, eventType model.AuditEventType, userName, message string, result model.AuditResult) {
	event := model.AuditEvent{
		ID:        uuid.New(),
		Type:      eventType,
		UserName:  userName,
		Message:   message,
		Result:    result,
		CreatedAt: a.now().UTC(),
	}

	if err := a.store.Append(ctx, event); err != nil {
		a.logger.Error("failed to append audit event",
			"type", eventType, "user_name", userName, "error", err)
		return
	}

	a.logger.Info("audit event",
		"type", eventType, "user_name", userName, "result", result, "message", message)
}
