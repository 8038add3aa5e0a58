package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gehnahouse/backend-gehna/internal/common"
)

// SlidingWindow is a redis-backed sliding window limiter using a sorted set
// per client key. Entries older than the window are trimmed on each check.
type SlidingWindow struct {
	r      *redis.Client
	window time.Duration
	max    int64
	log    zerolog.Logger
}

// NewSlidingWindow constructs a limiter allowing max requests per window.
func NewSlidingWindow(r *redis.Client, window time.Duration, max int, log zerolog.Logger) *SlidingWindow {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 60
	}
	return &SlidingWindow{r: r, window: window, max: int64(max), log: log}
}

// Allow records the request and reports whether it stays under the limit.
func (l *SlidingWindow) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	cutoff := now.Add(-l.window)
	redisKey := "ratelimit:" + key

	pipe := l.r.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(cutoff.UnixNano(), 10))
	count := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()),
	})
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return count.Val() < l.max, nil
}

// Middleware rejects over-limit clients with 429. Limiter failure fails open;
// losing rate limiting is better than refusing all traffic.
func (l *SlidingWindow) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := common.ClientIP(r)
		if id, ok := common.CustomerID(r.Context()); ok {
			key = id
		}
		allowed, err := l.Allow(r.Context(), key)
		if err != nil {
			l.log.Warn().Err(err).Msg("rate limiter unavailable, failing open")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
