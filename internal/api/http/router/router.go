// Package router assembles the HTTP surface of the verification store.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veristore/veristore-server/internal/api/http/handler"
	"github.com/veristore/veristore-server/internal/api/http/middleware"
	"github.com/veristore/veristore-server/internal/logger"
	"github.com/veristore/veristore-server/internal/model"
)

// Router wires services, middleware and routes into a gin engine.
type Router struct {
	verificationService handler.VerificationService
	auditService        handler.AuditService
	tokens              middleware.TokenParser
	contextManager      model.ContextManager
	limiter             model.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	verifierID          uuid.UUID
	logger              *logger.Logger
}

// New creates a Router instance.
func New(
	verificationService handler.VerificationService,
	auditService handler.AuditService,
	tokens middleware.TokenParser,
	contextManager model.ContextManager,
	limiter model.RateLimiter,
	rateLimitRequests int,
	rateLimitWindow time.Duration,
	verifierID uuid.UUID,
	logger *logger.Logger,
) *Router {
	return &Router{
		verificationService: verificationService,
		auditService:        auditService,
		tokens:              tokens,
		contextManager:      contextManager,
		limiter:             limiter,
		rateLimitRequests:   rateLimitRequests,
		rateLimitWindow:     rateLimitWindow,
		verifierID:          verifierID,
		logger:              logger,
	}
}

// Register sets up middleware and routes and returns the engine.
// VerifyUserIdentity and the health check are open; every mutating route
// sits behind token authentication.
func (r *Router) Register() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	logging := middleware.NewLogging(r.logger)
	engine.Use(logging.Handle)

	rateLimit := middleware.NewRateLimit(r.limiter, r.rateLimitRequests, r.rateLimitWindow, r.logger)
	engine.Use(rateLimit.Handle)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	verificationHandler := handler.NewVerification(r.verificationService, r.contextManager, r.logger)
	auditHandler := handler.NewAudit(r.auditService, r.contextManager, r.verifierID, r.logger)
	authenticate := middleware.NewAuthenticate(r.tokens, r.contextManager, r.logger)

	api := engine.Group("/api/v1")
	api.POST("/records/verify", verificationHandler.VerifyUserIdentity)

	protected := api.Group("", authenticate.Handle)
	protected.POST("/records", verificationHandler.StoreVerificationData)
	protected.DELETE("/records", verificationHandler.DeleteVerificationData)
	protected.POST("/records/key", verificationHandler.ChangeUserEncryptionKey)
	protected.POST("/records/change-count", verificationHandler.ReduceChangeCount)
	protected.POST("/audit/archive", auditHandler.Archive)

	return engine
}
