package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ramphq/rampcore/internal/adapter/http/handler"
	"github.com/ramphq/rampcore/internal/adapter/http/middleware"
	"github.com/ramphq/rampcore/internal/infrastructure/metrics"
	"github.com/ramphq/rampcore/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	LimitHandler       *handler.LimitHandler
	WithdrawalHandler  *handler.WithdrawalHandler
	OrderHandler       *handler.OrderHandler
	TransactionHandler *handler.TransactionHandler
	WebhookHandler     *handler.WebhookHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
	RateLimiter        *middleware.RateLimiter

	// One verification secret per webhook channel. An empty secret leaves
	// that channel open.
	SettlementWebhookSecret string
	WalletWebhookSecret     string

	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	logging := middleware.NewLoggingMiddleware(cfg.Logger)

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(logging.Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and observability endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Provider callbacks, each channel behind its own HMAC secret
	r.Route("/webhooks", func(r chi.Router) {
		if cfg.SettlementWebhookSecret == "" {
			cfg.Logger.Warn().Msg("settlement webhook signature verification is disabled")
		}
		if cfg.WalletWebhookSecret == "" {
			cfg.Logger.Warn().Msg("wallet webhook signature verification is disabled")
		}

		settlementSig := middleware.NewSignatureMiddleware(cfg.SettlementWebhookSecret, cfg.Metrics)
		walletSig := middleware.NewSignatureMiddleware(cfg.WalletWebhookSecret, cfg.Metrics)

		r.With(settlementSig.Wrap).Post("/settlement", cfg.WebhookHandler.Settlement)
		r.With(walletSig.Wrap).Post("/wallet", cfg.WebhookHandler.Wallet)
	})

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Spending limits
		r.Route("/limits", func(r chi.Router) {
			r.Post("/", cfg.LimitHandler.Create)
			r.Get("/", cfg.LimitHandler.List)
			r.Get("/balance", cfg.LimitHandler.Balance)
		})

		// Withdrawals
		r.Post("/withdrawals", cfg.WithdrawalHandler.Create)

		// Offramp orders
		r.Route("/orders", func(r chi.Router) {
			r.Get("/{orderID}", cfg.OrderHandler.Get)
			r.Post("/{orderID}/poll", cfg.OrderHandler.Poll)
		})

		// Ledger transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", cfg.TransactionHandler.List)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Get("/{id}/chunks", cfg.TransactionHandler.Chunks)
		})
	})

	return r
}
