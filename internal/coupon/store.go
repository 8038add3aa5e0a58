package coupon

import (
	"context"
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

// ErrDuplicateCode is returned when creating a coupon whose code already exists.
var ErrDuplicateCode = errors.New("coupon code already exists")

const couponColumns = `id, code, discount_type, discount_value, min_order_amount,
	max_discount_amount, usage_limit, per_customer_limit, starts_at, expires_at,
	is_active, total_uses, created_at, updated_at`

// Store persists coupons and their redemptions.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a coupon store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scanCoupon(row pgx.Row) (Coupon, error) {
	var c Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MinOrderAmount,
		&c.MaxDiscountAmount, &c.UsageLimit, &c.PerCustomerLimit, &c.StartsAt,
		&c.ExpiresAt, &c.IsActive, &c.TotalUses, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// GetByCode loads a coupon by its case-insensitive code.
func (s *Store) GetByCode(ctx context.Context, code string) (Coupon, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1`,
		strings.ToUpper(strings.TrimSpace(code)),
	)
	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, fmt.Errorf("get coupon by code: %w", err)
	}
	return c, nil
}

// GetByID loads a coupon by id.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (Coupon, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id)
	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, fmt.Errorf("get coupon by id: %w", err)
	}
	return c, nil
}

// List returns coupons newest first along with the total count.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Coupon, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM coupons`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]Coupon, 0, limit)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// Create inserts a coupon. The code is upper-cased before storage.
func (s *Store) Create(ctx context.Context, c Coupon) (Coupon, error) {
	c.ID = uuid.New()
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	row := s.pool.QueryRow(ctx,
		`INSERT INTO coupons (id, code, discount_type, discount_value, min_order_amount,
			max_discount_amount, usage_limit, per_customer_limit, starts_at, expires_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+couponColumns,
		c.ID, c.Code, c.DiscountType, c.DiscountValue, c.MinOrderAmount,
		c.MaxDiscountAmount, c.UsageLimit, c.PerCustomerLimit, c.StartsAt, c.ExpiresAt, c.IsActive,
	)
	created, err := scanCoupon(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Coupon{}, ErrDuplicateCode
		}
		return Coupon{}, fmt.Errorf("create coupon: %w", err)
	}
	return created, nil
}

// Update rewrites the editable fields of a coupon. total_uses is not editable
// through this path; corrections go through direct operator SQL.
func (s *Store) Update(ctx context.Context, c Coupon) (Coupon, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	row := s.pool.QueryRow(ctx,
		`UPDATE coupons SET code = $2, discount_type = $3, discount_value = $4,
			min_order_amount = $5, max_discount_amount = $6, usage_limit = $7,
			per_customer_limit = $8, starts_at = $9, expires_at = $10, is_active = $11,
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+couponColumns,
		c.ID, c.Code, c.DiscountType, c.DiscountValue, c.MinOrderAmount,
		c.MaxDiscountAmount, c.UsageLimit, c.PerCustomerLimit, c.StartsAt, c.ExpiresAt, c.IsActive,
	)
	updated, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		if isUniqueViolation(err) {
			return Coupon{}, ErrDuplicateCode
		}
		return Coupon{}, fmt.Errorf("update coupon: %w", err)
	}
	return updated, nil
}

// Delete removes a coupon.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountCustomerRedemptions reports how many times the customer already redeemed
// the coupon.
func (s *Store) CountCustomerRedemptions(ctx context.Context, couponID, customerID uuid.UUID) (int32, error) {
	var n int32
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM coupon_redemptions WHERE coupon_id = $1 AND customer_id = $2`,
		couponID, customerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count redemptions: %w", err)
	}
	return n, nil
}

// RedeemResult reports the outcome of a redemption attempt.
type RedeemResult struct {
	Coupon   Coupon
	Discount decimal.Decimal
	// Replayed is true when the order already holds a redemption and no
	// counter was incremented.
	Replayed bool
}

// Redeem applies a coupon to an order inside one serializable transaction:
// lock the coupon row, re-validate against the locked state, record the
// redemption keyed by order id, then increment total_uses exactly once. A
// repeat call for the same order is a no-op replay. The stored amount is the
// discount frozen on the order at checkout, not a recomputation, so the
// ledger stays consistent with the order even if the coupon was edited in
// between.
func (s *Store) Redeem(ctx context.Context, code string, customerID, orderID uuid.UUID, orderAmount, discount decimal.Decimal, now time.Time) (RedeemResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return RedeemResult{}, fmt.Errorf("begin redeem tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1 FOR UPDATE`,
		strings.ToUpper(strings.TrimSpace(code)),
	)
	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RedeemResult{}, ErrNotFound
		}
		return RedeemResult{}, fmt.Errorf("lock coupon: %w", err)
	}

	var prior int32
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM coupon_redemptions WHERE coupon_id = $1 AND customer_id = $2`,
		c.ID, customerID,
	).Scan(&prior)
	if err != nil {
		return RedeemResult{}, fmt.Errorf("count prior redemptions: %w", err)
	}

	if err := Validate(c, orderAmount, prior, now); err != nil {
		// The order may be replaying a redemption that already consumed a
		// usage slot; a replay must stay idempotent rather than rejected.
		var existing decimal.Decimal
		replayErr := tx.QueryRow(ctx,
			`SELECT amount FROM coupon_redemptions WHERE order_id = $1 AND coupon_id = $2`,
			orderID, c.ID,
		).Scan(&existing)
		if replayErr == nil {
			return RedeemResult{Coupon: c, Discount: existing, Replayed: true}, tx.Commit(ctx)
		}
		return RedeemResult{}, err
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO coupon_redemptions (id, coupon_id, customer_id, order_id, amount, redeemed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (order_id) DO NOTHING`,
		uuid.New(), c.ID, customerID, orderID, discount, now,
	)
	if err != nil {
		return RedeemResult{}, fmt.Errorf("insert redemption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var existing decimal.Decimal
		if err := tx.QueryRow(ctx,
			`SELECT amount FROM coupon_redemptions WHERE order_id = $1`, orderID,
		).Scan(&existing); err != nil {
			return RedeemResult{}, fmt.Errorf("load replayed redemption: %w", err)
		}
		return RedeemResult{Coupon: c, Discount: existing, Replayed: true}, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE coupons SET total_uses = total_uses + 1, updated_at = now() WHERE id = $1`, c.ID,
	); err != nil {
		return RedeemResult{}, fmt.Errorf("increment coupon uses: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return RedeemResult{}, fmt.Errorf("commit redeem tx: %w", err)
	}
	c.TotalUses++
	return RedeemResult{Coupon: c, Discount: discount}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
