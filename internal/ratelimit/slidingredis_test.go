package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, window time.Duration, max int) (*SlidingWindow, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSlidingWindow(client, window, max, zerolog.Nop()), mr
}

func TestAllowUnderLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, time.Minute, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "client-a")
		require.NoError(t, err)
		require.True(t, ok, "request %d should be allowed", i+1)
	}
	ok, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.False(t, ok, "fourth request should be limited")
}

func TestKeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t, time.Minute, 1)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = limiter.Allow(ctx, "client-b")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestWindowSlides(t *testing.T) {
	limiter, mr := newTestLimiter(t, time.Second, 1)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.False(t, ok)

	// After the window passes the old entry ages out.
	mr.FastForward(2 * time.Second)
	time.Sleep(1100 * time.Millisecond)
	ok, err = limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMiddlewareReturns429(t *testing.T) {
	limiter, _ := newTestLimiter(t, time.Minute, 1)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("GET", "/products", nil)
	r.RemoteAddr = "10.1.2.3:4567"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}
