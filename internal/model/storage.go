package model

import (
	"context"
	"io"
)

// Storage is the object-storage surface used for audit log archival.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
	Exists(ctx context.Context, key string) (bool, error)
}
