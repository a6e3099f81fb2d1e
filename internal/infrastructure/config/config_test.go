package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/ramphq/rampcore/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SETTLEMENT_WEBHOOK_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.SettlementWebhookSecret != "" || cfg.WalletWebhookSecret != "" {
		t.Fatalf("expected webhook secret defaults to be empty, got %q / %q",
			cfg.SettlementWebhookSecret, cfg.WalletWebhookSecret)
	}

	if cfg.RateLimitRPS != 50 || cfg.RateLimitBurst != 100 {
		t.Fatalf("expected default rate limit 50 rps / burst 100, got %v / %d",
			cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.PollAttempts != 23 {
		t.Fatalf("expected default poll attempts 23, got %d", cfg.PollAttempts)
	}

	if cfg.PollInterval != 6500*time.Millisecond {
		t.Fatalf("expected default poll interval 6.5s, got %s", cfg.PollInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("PROVIDER_BASE_URL", "https://sandbox.offramp.example.com")
	t.Setenv("PROVIDER_API_KEY", "sandbox-key")
	t.Setenv("SETTLEMENT_WEBHOOK_SECRET", "top-secret")
	t.Setenv("WALLET_WEBHOOK_SECRET", "wallet-secret")
	t.Setenv("POLL_ATTEMPTS", "5")
	t.Setenv("RATE_LIMIT_RPS", "7.5")
	t.Setenv("IDEMPOTENCY_TTL", "1h")
	t.Setenv("RATE_CACHE_TTL", "90s")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.ProviderBaseURL != "https://sandbox.offramp.example.com" || cfg.ProviderAPIKey != "sandbox-key" {
		t.Fatalf("expected provider settings to be set, got url=%s key=%s", cfg.ProviderBaseURL, cfg.ProviderAPIKey)
	}

	if cfg.SettlementWebhookSecret != "top-secret" || cfg.WalletWebhookSecret != "wallet-secret" {
		t.Fatalf("expected webhook secret overrides, got %q / %q",
			cfg.SettlementWebhookSecret, cfg.WalletWebhookSecret)
	}

	if cfg.PollAttempts != 5 {
		t.Fatalf("expected poll attempts override, got %d", cfg.PollAttempts)
	}

	if cfg.RateLimitRPS != 7.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}

	if cfg.IdempotencyTTL != time.Hour || cfg.RateCacheTTL != 90*time.Second {
		t.Fatalf("expected TTL overrides, got %s / %s", cfg.IdempotencyTTL, cfg.RateCacheTTL)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
