package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/config"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/database"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/database/migration"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/events"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/generation"
	handlers "github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/http/handler"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/http/middleware"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/idempotency"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/otel"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/ratelimit"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/repository/postgres"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/search"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/service"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/storage"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/tenant"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		logger.Fatal("failed to initialize object storage", zap.Error(err))
	}

	redisClient, err := idempotency.NewClient(cfg.Redis.URL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	var engine search.Engine
	switch cfg.Search.Backend {
	case "opensearch":
		engine = search.NewOpenSearchEngine(cfg.Search.Domains, cfg.Search.Username, cfg.Search.Password)
	default:
		engine, err = search.NewBleveEngine(cfg.Search.Domains)
		if err != nil {
			logger.Fatal("failed to open search indexes", zap.Error(err))
		}
	}
	defer engine.Close()

	resolver := tenant.NewResolver(cfg.Search.TenantDomains, cfg.Search.Domains)
	completer := generation.NewHTTPCompleter(cfg.Generation)
	deduper := idempotency.NewRedisDeduper(redisClient, cfg.Redis.DedupeRetention)

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	chatRepo := postgres.NewChatPostgres(db)
	usageRepo := postgres.NewUsagePostgres(db)

	docSvc := service.NewLifecycleManager(objStore, docRepo, engine, resolver, cfg.Sync, cfg.MinIO.Bucket, logger)
	retrievalSvc := service.NewRetrievalService(engine, logger)
	usageSvc := service.NewUsageService(usageRepo, deduper, logger)
	chatSvc := service.NewChatService(retrievalSvc, chatRepo, completer, usageSvc, cfg.Generation, logger)

	docSvc.Start(ctx)
	if cfg.Sync.NotificationsOn {
		watcher := events.NewWatcher(objStore, docSvc, logger)
		go watcher.Run(ctx)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(logger))
	app.Use(otelfiber.Middleware())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	var tenantMW []fiber.Handler
	if cfg.Redis.RateLimitPerHour > 0 {
		limiter := ratelimit.NewRateLimiter(redisClient)
		tenantMW = append(tenantMW, middleware.RateLimit(limiter, cfg.Redis.RateLimitPerHour, logger))
	}
	handlers.RegisterRoutes(app, db, cfg.Auth.JWTSecret, resolver, docSvc, chatSvc, usageSvc, tenantMW...)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	// Drain in-flight indexing jobs before closing shared clients.
	docSvc.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown", zap.Error(err))
	}
}
