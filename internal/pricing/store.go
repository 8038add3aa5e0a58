package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists the pricing config singleton with full-document replace
// semantics. The table holds exactly one row.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a pricing config store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Load reads the current config. ErrConfigNotFound when the row has not been seeded.
func (s *Store) Load(ctx context.Context) (Config, error) {
	var (
		doc         []byte
		lastUpdated time.Time
		updatedBy   string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT doc, last_updated, updated_by FROM pricing_config WHERE id = 1`,
	).Scan(&doc, &lastUpdated, &updatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Config{}, ErrConfigNotFound
		}
		return Config{}, fmt.Errorf("load pricing config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode pricing config: %w", err)
	}
	cfg.LastUpdated = lastUpdated
	cfg.UpdatedBy = updatedBy
	return cfg, nil
}

// Replace overwrites the singleton wholesale. The caller must have validated
// the config; version stamps are written alongside the document.
func (s *Store) Replace(ctx context.Context, cfg Config) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode pricing config: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO pricing_config (id, doc, last_updated, updated_by)
		 VALUES (1, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET doc = $1, last_updated = $2, updated_by = $3`,
		doc, cfg.LastUpdated, cfg.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("replace pricing config: %w", err)
	}
	return nil
}
