package model

import "github.com/google/uuid"

// TokenManager issues and validates caller identity tokens. The host
// environment mints a token for each principal; the server only verifies.
type TokenManager interface {
	GenerateCallerToken(callerID uuid.UUID) (string, error)
	ParseCallerToken(tokenString string) (uuid.UUID, error)
}
