package goldprice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gehnahouse/backend-gehna/internal/resilience"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type stubProvider struct {
	price decimal.Decimal
	err   error
	calls int
}

func (p *stubProvider) Fetch(context.Context) (decimal.Decimal, error) {
	p.calls++
	return p.price, p.err
}

func newTestCache(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCurrentFetchesAndCaches(t *testing.T) {
	cache := newTestCache(t)
	provider := &stubProvider{price: dec("6543.21")}
	svc := NewService(provider, nil, cache, time.Minute, decimal.Zero, nil, zerolog.Nop())

	price, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.True(t, price.Equal(dec("6543.21")))
	require.Equal(t, 1, provider.calls)

	// Second read is a cache hit.
	price, err = svc.Current(context.Background())
	require.NoError(t, err)
	require.True(t, price.Equal(dec("6543.21")))
	require.Equal(t, 1, provider.calls)
}

func TestCurrentServesFallbackWhenFetchFails(t *testing.T) {
	cache := newTestCache(t)
	provider := &stubProvider{err: errors.New("scrape failed")}
	svc := NewService(provider, nil, cache, time.Minute, dec("6000"), nil, zerolog.Nop())

	price, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.True(t, price.Equal(dec("6000")))
}

func TestCurrentUnavailableWithoutFallback(t *testing.T) {
	cache := newTestCache(t)
	provider := &stubProvider{err: errors.New("scrape failed")}
	svc := NewService(provider, nil, cache, time.Minute, decimal.Zero, nil, zerolog.Nop())

	_, err := svc.Current(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestOverrideWinsOverCacheAndUpstream(t *testing.T) {
	cache := newTestCache(t)
	provider := &stubProvider{price: dec("6543.21")}
	svc := NewService(provider, nil, cache, time.Minute, decimal.Zero, nil, zerolog.Nop())

	require.NoError(t, svc.Override(context.Background(), dec("7000")))
	price, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.True(t, price.Equal(dec("7000")))
	require.Equal(t, 0, provider.calls)

	require.NoError(t, svc.ClearOverride(context.Background()))
	price, err = svc.Current(context.Background())
	require.NoError(t, err)
	require.True(t, price.Equal(dec("6543.21")))
}

func TestInvalidateForcesRefresh(t *testing.T) {
	cache := newTestCache(t)
	provider := &stubProvider{price: dec("6543.21")}
	svc := NewService(provider, nil, cache, time.Minute, decimal.Zero, nil, zerolog.Nop())

	_, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background()))

	provider.price = dec("6600")
	price, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.True(t, price.Equal(dec("6600")))
	require.Equal(t, 2, provider.calls)
}

func TestBreakerShortCircuitsRepeatedFailures(t *testing.T) {
	cache := newTestCache(t)
	provider := &stubProvider{err: errors.New("scrape failed")}
	breaker := resilience.NewBreaker("gold_price", resilience.BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute})
	svc := NewService(provider, breaker, cache, time.Minute, decimal.Zero, nil, zerolog.Nop())

	for i := 0; i < 5; i++ {
		_, err := svc.Current(context.Background())
		require.ErrorIs(t, err, ErrUnavailable)
	}
	// Only the first two calls reach the provider before the breaker opens.
	require.Equal(t, 2, provider.calls)
}

func TestHTTPProviderParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price_per_gram": "6789.50"}`))
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, srv.Client())
	price, err := provider.Fetch(context.Background())
	require.NoError(t, err)
	require.True(t, price.Equal(dec("6789.50")))
}

func TestHTTPProviderRejectsBadResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, srv.Client())
	_, err := provider.Fetch(context.Background())
	require.Error(t, err)
}
