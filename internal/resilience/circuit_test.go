package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker("test", BreakerConfig{FailureThreshold: 3, OpenTimeout: time.Minute})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		err := b.Do(func() error { return boom })
		require.ErrorIs(t, err, boom)
	}
	require.Equal(t, StateOpen, b.State())

	err := b.Do(func() error {
		t.Fatal("should not be called while open")
		return nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker("test", BreakerConfig{FailureThreshold: 3, OpenTimeout: time.Minute})
	boom := errors.New("boom")

	require.Error(t, b.Do(func() error { return boom }))
	require.Error(t, b.Do(func() error { return boom }))
	require.NoError(t, b.Do(func() error { return nil }))
	require.Error(t, b.Do(func() error { return boom }))
	require.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker("test", BreakerConfig{FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond})
	now := time.Now()
	b.now = func() time.Time { return now }

	require.Error(t, b.Do(func() error { return errors.New("boom") }))
	require.Equal(t, StateOpen, b.State())

	now = now.Add(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Do(func() error { return nil }))
	require.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("test", BreakerConfig{FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond})
	now := time.Now()
	b.now = func() time.Time { return now }

	require.Error(t, b.Do(func() error { return errors.New("boom") }))
	now = now.Add(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	require.Error(t, b.Do(func() error { return errors.New("still down") }))
	require.Equal(t, StateOpen, b.State())
}

func TestBreakerStateChangeCallback(t *testing.T) {
	b := NewBreaker("gold_price", BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})
	var moves []string
	b.OnStateChange(func(name string, from, to State) {
		moves = append(moves, from.String()+"->"+to.String())
	})

	require.Error(t, b.Do(func() error { return errors.New("boom") }))
	require.Equal(t, []string{"closed->open"}, moves)
}
