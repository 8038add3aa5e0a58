package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache is a small JSON read-through cache over redis with a fixed TTL and
// prefix-based invalidation.
type Cache struct {
	r   *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewCache constructs a cache. A nil client disables all operations.
func NewCache(r *redis.Client, ttl time.Duration, log zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{r: r, ttl: ttl, log: log}
}

// GetJSON loads a cached value into dest, reporting whether it was present.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil || c.r == nil {
		return false
	}
	raw, err := c.r.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.r.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores a value under the cache TTL. Failures are logged, not returned.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	if c == nil || c.r == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.r.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

// InvalidatePrefix removes every key under the prefix.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) {
	if c == nil || c.r == nil {
		return
	}
	iter := c.r.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.r.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", iter.Val()).Msg("catalog cache invalidation failed")
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Warn().Err(err).Msg("catalog cache scan failed")
	}
}
