package model

import "errors"

var (
	// ErrNotFound is returned by stores for absent keys.
	ErrNotFound = errors.New("record not found")
	// ErrAccessDenied is returned when a caller other than the configured
	// verifier invokes a verifier-only operation. The call aborts before
	// the store is touched.
	ErrAccessDenied = errors.New("access denied")
)
