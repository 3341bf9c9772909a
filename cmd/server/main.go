package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	documentsapp "github.com/suppliers/backend/internal/application/documents"
	invoicingapp "github.com/suppliers/backend/internal/application/invoicing"
	partnerapp "github.com/suppliers/backend/internal/application/partner"
	"github.com/suppliers/backend/internal/domain/shared"
	"github.com/suppliers/backend/internal/infrastructure/cache"
	"github.com/suppliers/backend/internal/infrastructure/config"
	"github.com/suppliers/backend/internal/infrastructure/event"
	"github.com/suppliers/backend/internal/infrastructure/logger"
	"github.com/suppliers/backend/internal/infrastructure/messaging"
	"github.com/suppliers/backend/internal/infrastructure/persistence"
	"github.com/suppliers/backend/internal/infrastructure/storage"
	"github.com/suppliers/backend/internal/interfaces/http/handler"
	"github.com/suppliers/backend/internal/interfaces/http/middleware"
	"github.com/suppliers/backend/internal/interfaces/http/router"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting suppliers backend",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
	)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	// Repositories
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)

	// In-process domain event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}

	// Messaging fabric: catalog and inventory request/reply plus the
	// analyzed-document consumer. The server still works without it; remote
	// collaborators then degrade to warnings.
	var (
		natsConn  *nats.Conn
		catalog   invoicingapp.CatalogClient
		inventory invoicingapp.InventoryClient
	)
	natsConn, err = messaging.Connect(&cfg.NATS, log)
	if err != nil {
		log.Warn("messaging fabric unavailable, remote collaborators disabled", zap.Error(err))
	} else {
		defer natsConn.Close()
		catalog = messaging.NewNATSCatalogClient(natsConn, cfg.NATS.RequestTimeout)
		inventory = messaging.NewNATSInventoryClient(natsConn, cfg.NATS.RequestTimeout)
	}

	// Document storage: signed URL generation needs credentials; without them
	// a stub keeps the API surface alive for local development.
	var docStorage invoicingapp.DocumentStorage
	if cfg.Storage.AccessKey != "" && cfg.Storage.SecretKey != "" {
		s3Storage, err := storage.NewS3DocumentStorage(&cfg.Storage, log)
		if err != nil {
			return fmt.Errorf("failed to initialize document storage: %w", err)
		}
		docStorage = s3Storage
	} else {
		log.Warn("storage credentials not configured, using stub document storage")
		docStorage = storage.NewStubDocumentStorage()
	}

	// Application services
	supplierService := partnerapp.NewSupplierService(supplierRepo, eventBus, log)
	invoiceService := invoicingapp.NewInvoiceService(
		invoiceRepo, supplierRepo, supplierService, inventory, docStorage, eventBus, log)

	// Relay created invoices to the fabric for downstream consumers
	if natsConn != nil {
		integrationPublisher := messaging.NewNATSIntegrationPublisher(natsConn)
		eventBus.Subscribe(messaging.NewInvoiceCreatedRelay(integrationPublisher))
	}

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()

	var consumer *messaging.DocumentsConsumer
	if cfg.Consumer.Enabled && natsConn != nil {
		js, err := natsConn.JetStream()
		if err != nil {
			return fmt.Errorf("failed to open JetStream context: %w", err)
		}

		dedup := newDedupStore(cfg, log)
		defer dedup.Close() //nolint:errcheck

		reconciler := documentsapp.NewReconciler(
			invoiceService,
			invoicingapp.NewLineProcessor(catalog, log),
			messaging.NewNATSIntegrationPublisher(natsConn), log)
		consumer = messaging.NewDocumentsConsumer(
			js, reconciler, dedup, cfg.Consumer.DedupTTL, cfg.NATS.QueueGroup, log)
		if err := consumer.Start(consumerCtx); err != nil {
			return fmt.Errorf("failed to start documents consumer: %w", err)
		}
		log.Info("documents consumer started", zap.String("queue_group", cfg.NATS.QueueGroup))
	}

	engine := newEngine(cfg, log)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine.Use(
		middleware.RequestID(),
		middleware.CORSWithConfig(corsCfg),
		middleware.Secure(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)

	router.NewRouter(engine).
		Register(handler.NewSystemHandler(db, version)).
		Register(handler.NewSupplierHandler(supplierService)).
		Register(handler.NewInvoiceHandler(invoiceService, cfg.Storage.URLExpiry, cfg.Storage.BatchURLExpiry)).
		Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	// Stop taking new messages before draining in-flight HTTP requests
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			log.Warn("failed to stop documents consumer cleanly", zap.Error(err))
		}
	}
	stopConsumer()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("failed to stop event bus cleanly", zap.Error(err))
	}

	log.Info("shutdown complete")
	return nil
}

// newDedupStore prefers the shared Redis store so instances in the same queue
// group see each other's marks; without Redis the per-instance store still
// stops same-instance redeliveries.
func newDedupStore(cfg *config.Config, log *zap.Logger) shared.IdempotencyStore {
	store, err := cache.NewRedisDedupStore(&cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, using in-memory dedup store", zap.Error(err))
		return cache.NewInMemoryDedupStore()
	}
	return store
}

func newEngine(cfg *config.Config, log *zap.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("failed to set trusted proxies", zap.Error(err))
		}
	}
	return engine
}
