package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veristore/veristore-server/internal/logger"
	"github.com/veristore/veristore-server/internal/model"
)

// VerificationService is the store surface the handlers call.
type VerificationService interface {
	StoreVerificationData(ctx context.Context, callerID uuid.UUID, params model.StoreRecordParams) (bool, error)
	VerifyUserIdentity(ctx context.Context, userEncryptedKey, userName, mutableDataHash, immutableDataHash string) (bool, error)
	DeleteVerificationData(ctx context.Context, callerID uuid.UUID, userEncryptedKey, userName string) (bool, error)
	ChangeUserEncryptionKey(ctx context.Context, callerID uuid.UUID, userEncryptedKey, newUserEncryptedKey, userName string) (bool, error)
	ReduceChangeCount(ctx context.Context, callerID uuid.UUID, userEncryptedKey, userName string, newCount int64) (bool, error)
}

// Verification exposes the store operations over HTTP/JSON.
type Verification struct {
	service        VerificationService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewVerification creates a verification handler.
func NewVerification(service VerificationService, contextManager model.ContextManager, logger *logger.Logger) *Verification {
	return &Verification{
		service:        service,
		contextManager: contextManager,
		logger:         logger,
	}
}

type storeRequest struct {
	UserName          string `json:"user_name" binding:"required"`
	MutableDataHash   string `json:"mutable_data_hash" binding:"required"`
	ImmutableDataHash string `json:"immutable_data_hash" binding:"required"`
	UserEncryptedKey  string `json:"user_encrypted_key" binding:"required"`
	ChangeCount       int64  `json:"change_count"`
}

type verifyRequest struct {
	UserEncryptedKey  string `json:"user_encrypted_key" binding:"required"`
	UserName          string `json:"user_name" binding:"required"`
	MutableDataHash   string `json:"mutable_data_hash" binding:"required"`
	ImmutableDataHash string `json:"immutable_data_hash" binding:"required"`
}

type deleteRequest struct {
	UserEncryptedKey string `json:"user_encrypted_key" binding:"required"`
	UserName         string `json:"user_name" binding:"required"`
}

type changeKeyRequest struct {
	UserEncryptedKey    string `json:"user_encrypted_key" binding:"required"`
	NewUserEncryptedKey string `json:"new_user_encrypted_key" binding:"required"`
	UserName            string `json:"user_name" binding:"required"`
}

type reduceCountRequest struct {
	UserEncryptedKey string `json:"user_encrypted_key" binding:"required"`
	UserName         string `json:"user_name" binding:"required"`
	NewCount         int64  `json:"new_count"`
}

// StoreVerificationData handles POST /api/v1/records.
func (h *Verification) StoreVerificationData(c *gin.Context) {
	var req storeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callerID, ok := h.contextManager.GetCallerIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}

	ok, err := h.service.StoreVerificationData(c.Request.Context(), callerID, model.StoreRecordParams{
		UserName:          req.UserName,
		MutableDataHash:   req.MutableDataHash,
		ImmutableDataHash: req.ImmutableDataHash,
		UserEncryptedKey:  req.UserEncryptedKey,
		ChangeCount:       req.ChangeCount,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

// VerifyUserIdentity handles POST /api/v1/records/verify.
func (h *Verification) VerifyUserIdentity(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok, err := h.service.VerifyUserIdentity(c.Request.Context(),
		req.UserEncryptedKey, req.UserName, req.MutableDataHash, req.ImmutableDataHash)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

// DeleteVerificationData handles DELETE /api/v1/records.
func (h *Verification) DeleteVerificationData(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callerID, ok := h.contextManager.GetCallerIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}

	ok, err := h.service.DeleteVerificationData(c.Request.Context(), callerID,
		req.UserEncryptedKey, req.UserName)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

// ChangeUserEncryptionKey handles POST /api/v1/records/key.
func (h *Verification) ChangeUserEncryptionKey(c *gin.Context) {
	var req changeKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callerID, ok := h.contextManager.GetCallerIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}

	ok, err := h.service.ChangeUserEncryptionKey(c.Request.Context(), callerID,
		req.UserEncryptedKey, req.NewUserEncryptedKey, req.UserName)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

// ReduceChangeCount handles POST /api/v1/records/change-count.
func (h *Verification) ReduceChangeCount(c *gin.Context) {
	var req reduceCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callerID, ok := h.contextManager.GetCallerIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return
	}

	ok, err := h.service.ReduceChangeCount(c.Request.Context(), callerID,
		req.UserEncryptedKey, req.UserName, req.NewCount)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

func (h *Verification) fail(c *gin.Context, err error) {
	status, message := statusFromError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("verification operation failed", "error", err)
	}
	c.JSON(status, gin.H{"error": message})
}
