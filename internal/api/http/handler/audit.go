package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veristore/veristore-server/internal/logger"
	"github.com/veristore/veristore-server/internal/model"
)

// AuditService archives recorded audit events.
type AuditService interface {
	Archive(ctx context.Context, since time.Time) (string, int, error)
}

// Audit exposes audit log archival over HTTP.
type Audit struct {
	service        AuditService
	contextManager model.ContextManager
	verifierID     uuid.UUID
	logger         *logger.Logger
}

// NewAudit creates an audit handler. Archival is restricted to the
// verifier identity.
func NewAudit(service AuditService, contextManager model.ContextManager, verifierID uuid.UUID, logger *logger.Logger) *Audit {
	return &Audit{
		service:        service,
		contextManager: contextManager,
		verifierID:     verifierID,
		logger:         logger,
	}
}

type archiveRequest struct {
	Since time.Time `json:"since"`
}

// Archive handles POST /api/v1/audit/archive.
func (h *Audit) Archive(c *gin.Context) {
	var req archiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callerID, ok := h.contextManager.GetCallerIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}
	if callerID != h.verifierID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	key, count, err := h.service.Archive(c.Request.Context(), req.Since)
	if err != nil {
		h.logger.Error("audit archive failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "events": count})
}
