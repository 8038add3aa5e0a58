package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrItemNotFound is returned when a cart line does not exist.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrEmptyCart is returned when checkout or quoting finds no lines.
	ErrEmptyCart = errors.New("cart is empty")
)

// Item is one cart line.
type Item struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
}

// Cart is a customer's open cart. Each customer has at most one.
type Cart struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	CouponCode *string   `json:"coupon_code,omitempty"`
	Items      []Item    `json:"items"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store persists carts and cart lines.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a cart store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetOrCreate returns the customer's cart, creating an empty one on first use.
func (s *Store) GetOrCreate(ctx context.Context, customerID uuid.UUID) (Cart, error) {
	var c Cart
	err := s.pool.QueryRow(ctx,
		`INSERT INTO carts (id, customer_id) VALUES ($1, $2)
		 ON CONFLICT (customer_id) DO UPDATE SET updated_at = carts.updated_at
		 RETURNING id, customer_id, coupon_code, created_at, updated_at`,
		uuid.New(), customerID,
	).Scan(&c.ID, &c.CustomerID, &c.CouponCode, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Cart{}, fmt.Errorf("get or create cart: %w", err)
	}
	if err := s.loadItems(ctx, &c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// AddItem adds a product to the cart, merging quantities for repeats.
func (s *Store) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int32) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, quantity)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		uuid.New(), cartID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return s.touch(ctx, cartID)
}

// UpdateItem sets an exact quantity on a cart line.
func (s *Store) UpdateItem(ctx context.Context, cartID, itemID uuid.UUID, quantity int32) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE id = $2 AND cart_id = $1`,
		cartID, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return s.touch(ctx, cartID)
}

// RemoveItem drops a line from the cart.
func (s *Store) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE id = $2 AND cart_id = $1`, cartID, itemID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return s.touch(ctx, cartID)
}

// SetCoupon attaches or clears the cart's coupon code.
func (s *Store) SetCoupon(ctx context.Context, cartID uuid.UUID, code *string) error {
	if code != nil {
		normalized := strings.ToUpper(strings.TrimSpace(*code))
		code = &normalized
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE carts SET coupon_code = $2, updated_at = now() WHERE id = $1`, cartID, code)
	if err != nil {
		return fmt.Errorf("set cart coupon: %w", err)
	}
	return nil
}

// ClearTx empties the cart inside the caller's transaction, used at checkout.
func (s *Store) ClearTx(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE carts SET coupon_code = NULL, updated_at = now() WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("reset cart: %w", err)
	}
	return nil
}

func (s *Store) loadItems(ctx context.Context, c *Cart) error {
	rows, err := s.pool.Query(ctx,
		`SELECT id, product_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY created_at`, c.ID)
	if err != nil {
		return fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity); err != nil {
			return fmt.Errorf("scan cart item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	return rows.Err()
}

func (s *Store) touch(ctx context.Context, cartID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}
