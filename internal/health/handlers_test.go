package health

import (
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLiveAlwaysOK(t *testing.T) {
	c := &Checker{}
	w := httptest.NewRecorder()
	c.Live(w, httptest.NewRequest("GET", "/healthz", nil))
	require.Equal(t, 200, w.Code)
	require.Contains(t, w.Body.String(), `"ok"`)
}

func TestReadyWithHealthyRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	c := &Checker{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	w := httptest.NewRecorder()
	c.Ready(w, httptest.NewRequest("GET", "/readyz", nil))
	require.Equal(t, 200, w.Code)
	require.Contains(t, w.Body.String(), `"ready"`)
}

func TestReadyDegradedWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	c := &Checker{Redis: client}
	w := httptest.NewRecorder()
	c.Ready(w, httptest.NewRequest("GET", "/readyz", nil))
	require.Equal(t, 503, w.Code)
	require.Contains(t, w.Body.String(), `"degraded"`)
}
