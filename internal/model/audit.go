package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEventType enumerates store notifications.
type AuditEventType string

const (
	// AuditEventDataStored is emitted when a record is registered.
	AuditEventDataStored AuditEventType = "data_stored"
	// AuditEventDataDeleted is emitted when a record is removed.
	AuditEventDataDeleted AuditEventType = "data_deleted"
	// AuditEventEncryptionKeyChanged is emitted on credential rotation.
	AuditEventEncryptionKeyChanged AuditEventType = "encryption_key_changed"
	// AuditEventChangeCountReduced is emitted on administrative count rewrite.
	AuditEventChangeCountReduced AuditEventType = "change_count_reduced"
	// AuditEventError carries the message of a rejected call.
	AuditEventError AuditEventType = "error_message"
)

// AuditResult classifies the outcome an event reports.
type AuditResult string

const (
	AuditResultSuccess AuditResult = "success"
	AuditResultFailure AuditResult = "failure"
)

// AuditStore persists audit events in append order.
type AuditStore interface {
	Append(ctx context.Context, event AuditEvent) error
	ListSince(ctx context.Context, since time.Time) ([]AuditEvent, error)
}

// AuditEvent records one state-changing attempt against the store,
// successful or rejected.
type AuditEvent struct {
	ID        uuid.UUID      `json:"id"`
	Type      AuditEventType `json:"type"`
	UserName  string         `json:"user_name,omitempty"`
	Message   string         `json:"message,omitempty"`
	Result    AuditResult    `json:"result"`
	CreatedAt time.Time      `json:"created_at"`
}
