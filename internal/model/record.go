package model

import (
	"context"
	"time"
)

// RecordStore defines persistence operations for verification records,
// addressed by derived key.
type RecordStore interface {
	Get(ctx context.Context, key string) (VerificationRecord, error)
	Put(ctx context.Context, key string, record VerificationRecord) error
	Delete(ctx context.Context, key string) error
}

// VerificationRecord binds a username to its data commitments and to
// credential-rotation bookkeeping. An entry whose UserName is empty is
// treated as absent; "userName is set" is the store's existence test.
type VerificationRecord struct {
	UserName          string
	MutableDataHash   string
	ImmutableDataHash string
	UpdatedAt         time.Time
	ChangeCount       int64
}

// Exists reports whether the record occupies its store entry.
func (r VerificationRecord) Exists() bool {
	return r.UserName != ""
}

// StoreRecordParams contains parameters to register a verification record.
// A zero ChangeCount corresponds to the two-argument registration form.
type StoreRecordParams struct {
	UserName          string
	MutableDataHash   string
	ImmutableDataHash string
	UserEncryptedKey  string
	ChangeCount       int64
}
