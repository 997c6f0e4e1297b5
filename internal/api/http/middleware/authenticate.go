package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veristore/veristore-server/internal/logger"
	"github.com/veristore/veristore-server/internal/model"
)

// TokenParser resolves a caller identity from a bearer token.
type TokenParser interface {
	ParseCallerToken(tokenString string) (uuid.UUID, error)
}

// Authenticate validates bearer tokens and injects the caller identity
// into the request context.
type Authenticate struct {
	tokens         TokenParser
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates an Authenticate middleware instance.
func NewAuthenticate(tokens TokenParser, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokens: tokens, contextManager: contextManager, logger: logger}
}

// Handle parses the Authorization header and aborts with 401 when the
// token is missing or invalid.
func (m *Authenticate) Handle(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" || tokenString == authHeader {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
		return
	}

	callerID, err := m.tokens.ParseCallerToken(tokenString)
	if err != nil {
		m.logger.Debug("rejected caller token", "error", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization token"})
		return
	}

	ctx := m.contextManager.SetCallerIDToContext(c.Request.Context(), callerID)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
