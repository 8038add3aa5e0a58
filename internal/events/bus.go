package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Event is a persisted domain event fanned out to in-process subscribers.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Handler consumes a published event. Handlers run asynchronously; failures are
// logged, never propagated to the publisher.
type Handler func(ctx context.Context, evt Event)

// Bus persists domain events and dispatches them to subscribers. A nil pool
// disables persistence, which is convenient in tests.
type Bus struct {
	pool *pgxpool.Pool
	log  zerolog.Logger

	mu   sync.RWMutex
	subs map[string][]Handler
}

// NewBus constructs an event bus backed by the given pool.
func NewBus(pool *pgxpool.Pool, log zerolog.Logger) *Bus {
	return &Bus{
		pool: pool,
		log:  log,
		subs: make(map[string][]Handler),
	}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], h)
}

// Publish stores the event and fans it out. Persistence failure is returned to
// the caller; subscriber dispatch is fire-and-forget.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	evt := Event{
		ID:         uuid.New(),
		Topic:      topic,
		Payload:    raw,
		OccurredAt: time.Now().UTC(),
	}
	if b.pool != nil {
		_, err = b.pool.Exec(ctx,
			`INSERT INTO domain_events (id, topic, payload, occurred_at) VALUES ($1, $2, $3, $4)`,
			evt.ID, evt.Topic, evt.Payload, evt.OccurredAt,
		)
		if err != nil {
			return fmt.Errorf("persist event %s: %w", topic, err)
		}
	}
	b.dispatch(evt)
	return nil
}

func (b *Bus) dispatch(evt Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[evt.Topic]...)
	b.mu.RUnlock()
	for _, h := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error().Str("topic", evt.Topic).Interface("panic", r).Msg("event handler panicked")
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			h(ctx, evt)
		}(h)
	}
}
