package model

import (
	"context"

	"github.com/google/uuid"
)

// ContextManager moves the caller identity between transport and services.
type ContextManager interface {
	SetCallerIDToContext(ctx context.Context, callerID uuid.UUID) context.Context
	GetCallerIDFromContext(ctx context.Context) (uuid.UUID, bool)
}
