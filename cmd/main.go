package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	httpctx "github.com/veristore/veristore-server/internal/api/http/context"
	"github.com/veristore/veristore-server/internal/api/http/router"
	httpServer "github.com/veristore/veristore-server/internal/api/http/server"
	"github.com/veristore/veristore-server/internal/config"
	"github.com/veristore/veristore-server/internal/logger"
	"github.com/veristore/veristore-server/internal/model"
	"github.com/veristore/veristore-server/internal/ratelimit"
	"github.com/veristore/veristore-server/internal/repository/memory"
	"github.com/veristore/veristore-server/internal/repository/postgres"
	"github.com/veristore/veristore-server/internal/server"
	"github.com/veristore/veristore-server/internal/service"
	storage "github.com/veristore/veristore-server/internal/storage/minio"
	"github.com/veristore/veristore-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	verifierID, err := uuid.Parse(cfg.Verifier.ID)
	if err != nil {
		logger.Fatal("invalid verifier id", "error", err)
	}

	var (
		recordStore model.RecordStore
		auditStore  model.AuditStore
	)
	if cfg.Database.DSN != "" {
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			logger.Fatal("failed to initialize database", "error", err)
		}
		defer db.Close()
		recordStore = postgres.NewRecordRepository(db)
		auditStore = postgres.NewAuditRepository(db)
	} else {
		logger.Info("no database DSN configured, using in-memory stores")
		recordStore = memory.NewRecordRepository()
		auditStore = memory.NewAuditRepository()
	}

	var archive model.Storage
	if cfg.Archive.Endpoint != "" {
		minioClient, err := minio.New(cfg.Archive.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Archive.AccessKey, cfg.Archive.SecretKey, ""),
			Secure: cfg.Archive.UseSSL,
		})
		if err != nil {
			logger.Fatal("failed to create minio client", "error", err)
		}
		archive, err = storage.NewClient(ctx, minioClient, cfg.Archive.Bucket)
		if err != nil {
			logger.Fatal("failed to initialize archive storage", "error", err)
		}
	}

	auditService := service.NewAudit(auditStore, archive, logger, nil)
	verificationService := service.NewVerification(recordStore, auditService, logger, verifierID, cfg.Verifier.EncryptedKey, nil)

	var limiter model.RateLimiter
	if cfg.Redis.Addr != "" {
		limiter, err = ratelimit.NewRedisLimiter(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, nil)
		if err != nil {
			logger.Fatal("failed to create redis limiter", "error", err)
		}
	} else {
		limiter = ratelimit.NewMemoryLimiter(nil, 0)
	}

	tokenManager := token.NewJWT(cfg.JWT.Secret)
	ctxMgr := httpctx.NewManager()

	r := router.New(
		verificationService,
		auditService,
		tokenManager,
		ctxMgr,
		limiter,
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
		verifierID,
		logger,
	)
	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
