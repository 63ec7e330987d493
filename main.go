package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"thirdeye/internal/cache"
	"thirdeye/internal/cache/analysiscache"
	"thirdeye/internal/classify"
	"thirdeye/internal/config"
	"thirdeye/internal/delivery"
	"thirdeye/internal/http"
	"thirdeye/internal/logger"
	"thirdeye/internal/models"
	"thirdeye/internal/provider"
	"thirdeye/internal/ratelimit"
	"thirdeye/internal/session"
	"thirdeye/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connection for logging
	db, err := logger.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer db.Close()

	// Initialize logger
	appLogger := logger.NewDatabaseLogger(db)
	defer appLogger.Close()

	// Create internal log event for startup
	startupCtx := logger.WithLogEvent(context.Background(), logger.NewInternalLogEvent())

	appLogger.LogInfo(startupCtx, logger.OpServerStart, "Starting Third Eye Analysis API", map[string]interface{}{
		"version": "1.0.0",
		"config": map[string]interface{}{
			"port":       cfg.Port,
			"cache_type": cfg.CacheType,
			"store_type": cfg.StoreType,
		},
	})

	// Initialize cache and analysis cache
	cacheService, err := initializeCache(cfg)
	if err != nil {
		appLogger.LogError(
			startupCtx,
			"cache_init",
			"",
			"Failed to initialize cache",
			err,
			models.LogSeverityHigh,
			nil,
		)
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	analysisCache := analysiscache.New(cacheService, appLogger, cfg.ProviderTimeout)

	// Initialize the analysis provider
	providerService, err := provider.NewGeminiProvider(startupCtx, cfg.GeminiAPIKey, cfg.AnalysisModel, cfg.ChatModel)
	if err != nil {
		appLogger.LogError(
			startupCtx,
			"provider_init",
			"",
			"Failed to initialize analysis provider",
			err,
			models.LogSeverityHigh,
			nil,
		)
		log.Fatalf("Failed to initialize analysis provider: %v", err)
	}

	// Initialize the session store and synchronizer
	repository, err := initializeStore(cfg)
	if err != nil {
		appLogger.LogError(
			startupCtx,
			"store_init",
			"",
			"Failed to initialize session store",
			err,
			models.LogSeverityHigh,
			nil,
		)
		log.Fatalf("Failed to initialize session store: %v", err)
	}

	synchronizer := session.New(repository, appLogger, session.Config{
		DebounceWindow: cfg.DebounceWindow,
		WriteDelay:     cfg.SyncWriteDelay,
		RestoreDelay:   cfg.RestoreDelay,
	})

	// Initialize remaining components
	classifier := classify.New()
	deliveryService := delivery.NewHTTPDelivery(cfg.DeliveryURL, cfg.DeliveryAccessKey, cfg.DeliveryTimeout, cfg.DeliveryMinDelay)

	rateLimiter := ratelimit.NewTwoTierRateLimiter(
		int64(cfg.GlobalRateLimitPerSec),
		int64(cfg.GlobalRateLimitPerSec),
		int64(cfg.PerIPRateLimitPerSec),
		int64(cfg.PerIPRateLimitPerSec),
	)

	// Initialize HTTP handler
	handler := http.NewHandler(classifier, analysisCache, providerService, deliveryService, synchronizer, appLogger)

	// Initialize server
	addr := ":" + cfg.Port
	server := http.NewServer(
		addr,
		handler,
		appLogger,
		rateLimiter,
		cfg.ServerReadTimeout,
		cfg.ServerWriteTimeout,
	)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			appLogger.LogError(
				context.Background(),
				logger.OpServerStart,
				"",
				"Server failed to start",
				err,
				models.LogSeverityHigh,
				map[string]interface{}{"addr": addr},
			)
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	fmt.Printf("🚀 Third Eye Analysis API server started on %s\n", addr)
	fmt.Println("📋 Available endpoints:")
	fmt.Println("  GET  /health                    - Health check")
	fmt.Println("  GET  /api/classify              - Classify a target")
	fmt.Println("  GET  /api/analyze/{target}      - Analyze a target")
	fmt.Println("  POST /api/architect/ask         - Ask the Architect")
	fmt.Println("  POST /api/report                - Dispatch forensic report")
	fmt.Println("  POST /api/session/mount         - Mount ghost session")
	fmt.Println("  GET  /api/session               - Inspect ghost session")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n🛑 Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		appLogger.LogError(
			ctx,
			logger.OpServerShutdown,
			"",
			"Server shutdown error",
			err,
			models.LogSeverityMedium,
			nil,
		)
		log.Printf("Server shutdown error: %v", err)
	} else {
		appLogger.LogInfo(ctx, logger.OpServerShutdown, "Server shutdown completed successfully", nil)
		fmt.Println("✅ Server shutdown completed")
	}
}

func initializeCache(cfg *config.Config) (cache.Service, error) {
	switch cfg.CacheType {
	case "redis":
		return cache.NewRedisCache(cfg.RedisURL)
	case "memory":
		return cache.NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}

func initializeStore(cfg *config.Config) (store.Repository, error) {
	switch cfg.StoreType {
	case "redis":
		return store.NewRedisRepository(cfg.RedisURL)
	case "memory":
		return store.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.StoreType)
	}
}
