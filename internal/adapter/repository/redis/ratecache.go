package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// DefaultRateTTL is how long indicative provider quotes stay cached when no
// TTL is configured.
const DefaultRateTTL = 30 * time.Second

// RateCache implements usecase.RateCache using Redis. Rates are stored as
// decimal strings, never floats.
type RateCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRateCache creates a new RateCache. A zero ttl falls back to
// DefaultRateTTL.
func NewRateCache(client *redis.Client, ttl time.Duration) *RateCache {
	if ttl <= 0 {
		ttl = DefaultRateTTL
	}
	return &RateCache{
		client: client,
		prefix: "rate:",
		ttl:    ttl,
	}
}

// Get retrieves the cached indicative rate for a token. The second return
// value reports whether a usable rate was present.
func (c *RateCache) Get(ctx context.Context, token string) (decimal.Decimal, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+token).Result()
	if err == redis.Nil {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}

	rate, err := decimal.NewFromString(val)
	if err != nil {
		// A corrupt entry is treated as a miss so the caller re-quotes.
		return decimal.Zero, false, nil
	}

	return rate, true, nil
}

// Set stores a rate for the cache's configured TTL.
func (c *RateCache) Set(ctx context.Context, token string, rate decimal.Decimal) error {
	return c.client.Set(ctx, c.prefix+token, rate.String(), c.ttl).Err()
}
