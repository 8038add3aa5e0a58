package goldprice

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gehnahouse/backend-gehna/internal/events"
	"github.com/gehnahouse/backend-gehna/internal/obs"
	"github.com/gehnahouse/backend-gehna/internal/resilience"
)

const (
	cacheKey    = "goldprice:current"
	overrideKey = "goldprice:override"
)

// Service serves the current gold price from an injected cache with a defined
// TTL, refreshing through a circuit breaker. An admin override, when present,
// wins over the fetched price.
type Service struct {
	provider Provider
	breaker  *resilience.Breaker
	cache    *redis.Client
	ttl      time.Duration
	fallback decimal.Decimal
	bus      *events.Bus
	log      zerolog.Logger
}

// NewService constructs a gold price service.
func NewService(provider Provider, breaker *resilience.Breaker, cache *redis.Client, ttl time.Duration, fallback decimal.Decimal, bus *events.Bus, log zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		provider: provider,
		breaker:  breaker,
		cache:    cache,
		ttl:      ttl,
		fallback: fallback,
		bus:      bus,
		log:      log,
	}
}

// Current returns the gold price per gram. Resolution order: admin override,
// fresh cache entry, upstream fetch, configured fallback.
func (s *Service) Current(ctx context.Context) (decimal.Decimal, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, overrideKey).Result(); err == nil {
			if price, perr := decimal.NewFromString(raw); perr == nil {
				return price, nil
			}
		}
		if raw, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			if price, perr := decimal.NewFromString(raw); perr == nil {
				return price, nil
			}
			s.cache.Del(ctx, cacheKey)
		}
	}
	price, err := s.refresh(ctx)
	if err != nil {
		if s.fallback.IsPositive() {
			countRefresh("fallback")
			s.log.Warn().Err(err).Str("fallback", s.fallback.String()).Msg("gold price fetch failed, serving fallback")
			return s.fallback, nil
		}
		return decimal.Zero, ErrUnavailable
	}
	return price, nil
}

// Override pins the price until cleared, bypassing the upstream endpoint.
func (s *Service) Override(ctx context.Context, price decimal.Decimal) error {
	if s.cache == nil {
		return ErrUnavailable
	}
	if err := s.cache.Set(ctx, overrideKey, price.String(), 0).Err(); err != nil {
		return err
	}
	s.announce(ctx, price, "override")
	return nil
}

// ClearOverride removes a pinned price.
func (s *Service) ClearOverride(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, overrideKey).Err()
}

// Invalidate drops the cached price so the next read refreshes upstream.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, cacheKey).Err()
}

func (s *Service) refresh(ctx context.Context) (decimal.Decimal, error) {
	var price decimal.Decimal
	fetch := func() error {
		p, err := s.provider.Fetch(ctx)
		if err != nil {
			return err
		}
		price = p
		return nil
	}
	var err error
	if s.breaker != nil {
		err = s.breaker.Do(fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		countRefresh("error")
		return decimal.Zero, err
	}
	countRefresh("ok")
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, price.String(), s.ttl).Err(); err != nil {
			s.log.Warn().Err(err).Msg("gold price cache write failed")
		}
	}
	s.announce(ctx, price, "refresh")
	return price, nil
}

func (s *Service) announce(ctx context.Context, price decimal.Decimal, source string) {
	if s.bus == nil {
		return
	}
	payload := map[string]any{"price_per_gram": price, "source": source}
	if err := s.bus.Publish(ctx, events.TopicGoldPriceUpdated, payload); err != nil {
		s.log.Warn().Err(err).Msg("publish gold price event failed")
	}
}

func countRefresh(result string) {
	if obs.GoldPriceRefreshTotal != nil {
		obs.GoldPriceRefreshTotal.WithLabelValues(result).Inc()
	}
}
