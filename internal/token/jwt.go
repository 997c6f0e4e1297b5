package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/veristore/veristore-server/internal/model"
)

// Claims represents JWT claims carrying the caller identity.
type Claims struct {
	jwt.RegisteredClaims
	CallerID  uuid.UUID `json:"caller_id"`
	TokenType string    `json:"typ"`
}

// JWT implements TokenManager backed by symmetric HMAC. The secret is
// shared with the host environment that mints caller tokens.
type JWT struct {
	secretKey string
}

// NewJWT creates a new JWT token manager with the provided secret key.
func NewJWT(secretKey string) model.TokenManager {
	return &JWT{secretKey: secretKey}
}

const (
	callerTTL  = 24 * time.Hour
	typeCaller = "caller"
)

// GenerateCallerToken creates a signed caller identity token.
func (j *JWT) GenerateCallerToken(callerID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(callerTTL)),
		},
		CallerID:  callerID,
		TokenType: typeCaller,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign caller token: %w", err)
	}

	return tokenString, nil
}

// ParseCallerToken validates a token and extracts the caller identity.
func (j *JWT) ParseCallerToken(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse caller token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("caller token is invalid")
	}
	if claims.TokenType != typeCaller {
		return uuid.Nil, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}
	if claims.CallerID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("caller token has no caller id")
	}
	return claims.CallerID, nil
}
