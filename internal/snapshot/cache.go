package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sellpoint/sellpoint/internal/domain"
)

// CachedSource fronts a Source with a Redis cache so repeated lookups
// for the same vehicle within the TTL avoid the provider entirely.
// Snapshots age quickly; the TTL should stay well under the confidence
// decay horizon computed upstream.
type CachedSource struct {
	inner  Source
	client redis.Cmdable
	ttl    time.Duration
}

// NewCachedSource wraps inner with a Redis cache.
func NewCachedSource(inner Source, client redis.Cmdable, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedSource{inner: inner, client: client, ttl: ttl}
}

// Fetch returns the cached snapshot when fresh, otherwise consults the
// inner source and caches the result. Cache failures degrade to the
// inner source; they never fail the lookup.
func (c *CachedSource) Fetch(ctx context.Context, registration string, mileage float64) (*domain.MarketValuationSnapshot, error) {
	key := cacheKey(registration)

	if cached, err := c.client.Get(ctx, key).Result(); err == nil {
		var snapshot domain.MarketValuationSnapshot
		if jsonErr := json.Unmarshal([]byte(cached), &snapshot); jsonErr == nil {
			return &snapshot, nil
		}
		// Corrupt entry: drop it and fall through to the provider.
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("key", key).Msg("snapshot cache read failed")
	}

	snapshot, err := c.inner.Fetch(ctx, registration, mileage)
	if err != nil || snapshot == nil {
		return snapshot, err
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return snapshot, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("snapshot cache write failed")
	}
	return snapshot, nil
}

func cacheKey(registration string) string {
	return fmt.Sprintf("sellpoint:valuation:%s", registration)
}
