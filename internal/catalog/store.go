package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound is returned for missing or inactive products.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateSlug is returned when a slug is already taken.
	ErrDuplicateSlug = errors.New("product slug already exists")
)

// Stone describes one diamond set on a product. BaseValuePerCarat is the
// catalog valuation fed into the pricing engine.
type Stone struct {
	CaratWeight       decimal.Decimal `json:"carat_weight"`
	BaseValuePerCarat decimal.Decimal `json:"base_value_per_carat"`
}

// Product is a jewellery catalog entry.
type Product struct {
	ID              uuid.UUID       `json:"id"`
	Slug            string          `json:"slug"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Metal           string          `json:"metal"`
	GoldWeightGrams decimal.Decimal `json:"gold_weight_grams"`
	Stones          []Stone         `json:"stones"`
	Images          []string        `json:"images"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Metal  string
	Search string
}

// Store persists catalog products. Stones and images are stored as jsonb.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a catalog store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const productColumns = `id, slug, name, description, metal, gold_weight_grams, stones, images, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p      Product
		stones []byte
		images []byte
	)
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.Metal,
		&p.GoldWeightGrams, &stones, &images, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if len(stones) > 0 {
		if err := json.Unmarshal(stones, &p.Stones); err != nil {
			return Product{}, fmt.Errorf("decode product stones: %w", err)
		}
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return Product{}, fmt.Errorf("decode product images: %w", err)
		}
	}
	return p, nil
}

// List returns active products matching the filter, newest first, with total count.
func (s *Store) List(ctx context.Context, f ListFilter, limit, offset int) ([]Product, int64, error) {
	where := []string{"is_active = true"}
	args := []any{}
	if f.Metal != "" {
		args = append(args, f.Metal)
		where = append(where, fmt.Sprintf("metal = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM products WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, clause, len(args)-1, len(args))
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

// GetBySlug loads an active product.
func (s *Store) GetBySlug(ctx context.Context, slug string) (Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1 AND is_active = true`, slug)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("get product by slug: %w", err)
	}
	return p, nil
}

// GetByID loads a product regardless of active flag, for admin and checkout use.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

// Create inserts a product.
func (s *Store) Create(ctx context.Context, p Product) (Product, error) {
	p.ID = uuid.New()
	stones, err := json.Marshal(p.Stones)
	if err != nil {
		return Product{}, fmt.Errorf("encode stones: %w", err)
	}
	images, err := json.Marshal(p.Images)
	if err != nil {
		return Product{}, fmt.Errorf("encode images: %w", err)
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO products (id, slug, name, description, metal, gold_weight_grams, stones, images, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+productColumns,
		p.ID, p.Slug, p.Name, p.Description, p.Metal, p.GoldWeightGrams, stones, images, p.IsActive,
	)
	created, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, ErrDuplicateSlug
		}
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// Update rewrites a product.
func (s *Store) Update(ctx context.Context, p Product) (Product, error) {
	stones, err := json.Marshal(p.Stones)
	if err != nil {
		return Product{}, fmt.Errorf("encode stones: %w", err)
	}
	images, err := json.Marshal(p.Images)
	if err != nil {
		return Product{}, fmt.Errorf("encode images: %w", err)
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE products SET slug = $2, name = $3, description = $4, metal = $5,
			gold_weight_grams = $6, stones = $7, images = $8, is_active = $9, updated_at = now()
		 WHERE id = $1
		 RETURNING `+productColumns,
		p.ID, p.Slug, p.Name, p.Description, p.Metal, p.GoldWeightGrams, stones, images, p.IsActive,
	)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		if isUniqueViolation(err) {
			return Product{}, ErrDuplicateSlug
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// Delete deactivates a product rather than removing rows referenced by orders.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
