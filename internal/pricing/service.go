package pricing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gehnahouse/backend-gehna/internal/events"
	"github.com/gehnahouse/backend-gehna/internal/obs"
)

const configCacheKey = "pricing:config:v1"

// ConfigSource loads a consistent pricing config snapshot for a computation.
type ConfigSource interface {
	Get(ctx context.Context) (Config, error)
}

// Service owns config access (store + cache) and quote computation.
type Service struct {
	store    *Store
	cache    *redis.Client
	cacheTTL time.Duration
	bus      *events.Bus
	log      zerolog.Logger
}

// NewService constructs a pricing service. cache may be nil to disable caching.
func NewService(store *Store, cache *redis.Client, cacheTTL time.Duration, bus *events.Bus, log zerolog.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{store: store, cache: cache, cacheTTL: cacheTTL, bus: bus, log: log}
}

// Get returns the current config, served from cache when fresh.
func (s *Service) Get(ctx context.Context) (Config, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, configCacheKey).Bytes()
		if err == nil {
			var cfg Config
			if uerr := json.Unmarshal(raw, &cfg); uerr == nil {
				return cfg, nil
			}
			// Stale or corrupt cache entry, fall through to the store.
			s.cache.Del(ctx, configCacheKey)
		}
	}
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return Config{}, err
	}
	s.cacheSet(ctx, cfg)
	return cfg, nil
}

// Replace validates and writes the config wholesale, stamps the version,
// invalidates the cache and announces the change.
func (s *Service) Replace(ctx context.Context, cfg Config, updatedBy string) (Config, error) {
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.LastUpdated = time.Now().UTC()
	cfg.UpdatedBy = updatedBy
	if err := s.store.Replace(ctx, cfg); err != nil {
		return Config{}, err
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, configCacheKey).Err(); err != nil {
			s.log.Warn().Err(err).Msg("pricing config cache invalidation failed")
		}
	}
	if s.bus != nil {
		payload := map[string]any{"updated_by": updatedBy, "last_updated": cfg.LastUpdated}
		if err := s.bus.Publish(ctx, events.TopicPricingConfigUpdated, payload); err != nil {
			s.log.Warn().Err(err).Msg("publish pricing config update event failed")
		}
	}
	return cfg, nil
}

// Quote prices an item against a single config snapshot.
func (s *Service) Quote(ctx context.Context, stones []DiamondComponent, goldWeightGrams, goldPricePerGram decimal.Decimal) (Quote, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		countQuote("config_error")
		return Quote{}, err
	}
	quote, err := ComputeFinalPrice(cfg, stones, goldWeightGrams, goldPricePerGram)
	if err != nil {
		countQuote("invalid_input")
		return Quote{}, err
	}
	countQuote("ok")
	return quote, nil
}

func (s *Service) cacheSet(ctx context.Context, cfg Config) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, configCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Msg("pricing config cache write failed")
	}
}

func countQuote(result string) {
	if obs.PricingQuoteTotal != nil {
		obs.PricingQuoteTotal.WithLabelValues(result).Inc()
	}
}
