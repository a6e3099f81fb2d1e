package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/ramphq/rampcore/internal/adapter/http"
	"github.com/ramphq/rampcore/internal/adapter/http/handler"
	"github.com/ramphq/rampcore/internal/adapter/http/middleware"
	"github.com/ramphq/rampcore/internal/adapter/provider"
	postgresRepo "github.com/ramphq/rampcore/internal/adapter/repository/postgres"
	redisRepo "github.com/ramphq/rampcore/internal/adapter/repository/redis"
	"github.com/ramphq/rampcore/internal/infrastructure/config"
	"github.com/ramphq/rampcore/internal/infrastructure/eventpublisher"
	"github.com/ramphq/rampcore/internal/infrastructure/logger"
	"github.com/ramphq/rampcore/internal/infrastructure/metrics"
	"github.com/ramphq/rampcore/internal/infrastructure/postgres"
	"github.com/ramphq/rampcore/internal/infrastructure/redis"
	"github.com/ramphq/rampcore/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		URL:            cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	appMetrics := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	limitRepo := postgresRepo.NewLimitRepository(pool)
	chunkRepo := postgresRepo.NewChunkRepository(pool)
	orderRepo := postgresRepo.NewOrderRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	userDirectory := postgresRepo.NewUserDirectory(pool)
	retrier := postgresRepo.NewRetrier()
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	rateCache := redisRepo.NewRateCache(redisClient, cfg.RateCacheTTL)
	idGen := postgresRepo.NewULIDGenerator()

	// Settlement provider client
	providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, appLogger)

	// Initialize use cases
	allocationUC := usecase.NewAllocationUseCase(
		txManager, limitRepo, chunkRepo, transactionRepo, outboxRepo,
		idGen, retrier, appLogger, appMetrics,
	)
	balanceUC := usecase.NewBalanceUseCase(limitRepo, userDirectory, appLogger)
	settlementUC := usecase.NewSettlementUseCase(
		txManager, limitRepo, orderRepo, transactionRepo, outboxRepo,
		providerClient, rateCache, idGen, appLogger, appMetrics,
		usecase.PollPolicy{
			Attempts:       cfg.PollAttempts,
			Interval:       cfg.PollInterval,
			RequestTimeout: cfg.PollRequestTimeout,
		},
	)
	webhookUC := usecase.NewWebhookUseCase(
		txManager, transactionRepo, outboxRepo, allocationUC,
		idGen, appLogger, appMetrics,
	)

	// Initialize handlers
	limitHandler := handler.NewLimitHandler(settlementUC, balanceUC)
	withdrawalHandler := handler.NewWithdrawalHandler(allocationUC)
	orderHandler := handler.NewOrderHandler(settlementUC)
	transactionHandler := handler.NewTransactionHandler(allocationUC)
	webhookHandler := handler.NewWebhookHandler(settlementUC, webhookUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Per-IP rate limiter
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		LimitHandler:            limitHandler,
		WithdrawalHandler:       withdrawalHandler,
		OrderHandler:            orderHandler,
		TransactionHandler:      transactionHandler,
		WebhookHandler:          webhookHandler,
		HealthHandler:           healthHandler,
		IdempotencyStore:        idempotencyStore,
		IdempotencyTTL:          cfg.IdempotencyTTL,
		RateLimiter:             rateLimiter,
		SettlementWebhookSecret: cfg.SettlementWebhookSecret,
		WalletWebhookSecret:     cfg.WalletWebhookSecret,
		Metrics:                 appMetrics,
		Logger:                  appLogger,
	})

	// Background workers share one cancelable context
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	if rateLimiter != nil {
		go rateLimiter.CleanupEvery(workerCtx, time.Hour)
	}

	eventPublisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(appLogger),
		Logger:     appLogger,
		Metrics:    appMetrics,
	})
	go func() {
		if err := eventPublisher.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			appLogger.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")
	stopWorkers()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}
