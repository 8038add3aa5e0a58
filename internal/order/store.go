package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrOrderNotFound is returned when an order does not exist or belongs to
// another customer.
var ErrOrderNotFound = errors.New("order not found")

// Item is a single order line, priced at checkout time.
type Item struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	Quantity        int32           `json:"quantity"`
	GoldWeightGrams decimal.Decimal `json:"gold_weight_grams"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// StatusEvent is one append-only entry in an order's status history.
type StatusEvent struct {
	Status    Status    `json:"status"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is a placed order with its pricing breakdown frozen at checkout.
type Order struct {
	ID                uuid.UUID       `json:"id"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	SubtotalBeforeTax decimal.Decimal `json:"subtotal_before_tax"`
	GST               decimal.Decimal `json:"gst"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	Total             decimal.Decimal `json:"total"`
	CouponCode        *string         `json:"coupon_code,omitempty"`
	Status            Status          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Items             []Item          `json:"items,omitempty"`
	History           []StatusEvent   `json:"status_history,omitempty"`
}

// Store persists orders, items and the status history log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs an order store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const orderColumns = `id, customer_id, subtotal_before_tax, gst, discount_amount, total,
	coupon_code, status, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.SubtotalBeforeTax, &o.GST, &o.DiscountAmount,
		&o.Total, &o.CouponCode, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// CreateTx inserts a new order with its items and the initial pending history
// row inside the caller's transaction.
func (s *Store) CreateTx(ctx context.Context, tx pgx.Tx, o Order) (Order, error) {
	o.ID = uuid.New()
	o.Status = StatusPending
	row := tx.QueryRow(ctx,
		`INSERT INTO orders (id, customer_id, subtotal_before_tax, gst, discount_amount, total, coupon_code, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+orderColumns,
		o.ID, o.CustomerID, o.SubtotalBeforeTax, o.GST, o.DiscountAmount, o.Total, o.CouponCode, o.Status,
	)
	created, err := scanOrder(row)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	for i := range o.Items {
		o.Items[i].ID = uuid.New()
		_, err := tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, name, quantity, gold_weight_grams, unit_price, line_total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			o.Items[i].ID, created.ID, o.Items[i].ProductID, o.Items[i].Name,
			o.Items[i].Quantity, o.Items[i].GoldWeightGrams, o.Items[i].UnitPrice, o.Items[i].LineTotal,
		)
		if err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO order_status_history (id, order_id, status) VALUES ($1, $2, $3)`,
		uuid.New(), created.ID, StatusPending,
	)
	if err != nil {
		return Order{}, fmt.Errorf("insert initial status history: %w", err)
	}
	created.Items = o.Items
	created.History = []StatusEvent{{Status: StatusPending, CreatedAt: created.CreatedAt}}
	return created, nil
}

// GetByID loads an order with items and history.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	if err := s.attachDetails(ctx, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// GetForCustomer loads an order only when owned by the customer.
func (s *Store) GetForCustomer(ctx context.Context, id, customerID uuid.UUID) (Order, error) {
	o, err := s.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.CustomerID != customerID {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

// ListByCustomer returns the customer's orders, newest first, without items.
func (s *Store) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		customerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list customer orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

// ListAll returns orders for the back office, optionally filtered by status.
func (s *Store) ListAll(ctx context.Context, status *Status, limit, offset int) ([]Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status != nil {
		rows, err = s.pool.Query(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			*status, limit, offset,
		)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, offset,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

// UpdateStatus moves the order forward and appends the history entry in one
// transaction. The current row is locked so concurrent admin updates serialize.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, to Status, note *string) (Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin status tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("lock order: %w", err)
	}
	if err := CheckTransition(current, to); err != nil {
		return Order{}, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, to,
	); err != nil {
		return Order{}, fmt.Errorf("update order status: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO order_status_history (id, order_id, status, note) VALUES ($1, $2, $3, $4)`,
		uuid.New(), id, to, note,
	); err != nil {
		return Order{}, fmt.Errorf("append status history: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit status tx: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *Store) attachDetails(ctx context.Context, o *Order) error {
	itemRows, err := s.pool.Query(ctx,
		`SELECT id, product_id, name, quantity, gold_weight_grams, unit_price, line_total
		 FROM order_items WHERE order_id = $1 ORDER BY name`, o.ID,
	)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it Item
		if err := itemRows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Quantity,
			&it.GoldWeightGrams, &it.UnitPrice, &it.LineTotal); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := itemRows.Err(); err != nil {
		return err
	}

	histRows, err := s.pool.Query(ctx,
		`SELECT status, note, created_at FROM order_status_history
		 WHERE order_id = $1 ORDER BY created_at ASC`, o.ID,
	)
	if err != nil {
		return fmt.Errorf("load status history: %w", err)
	}
	defer histRows.Close()
	for histRows.Next() {
		var evt StatusEvent
		if err := histRows.Scan(&evt.Status, &evt.Note, &evt.CreatedAt); err != nil {
			return fmt.Errorf("scan status history: %w", err)
		}
		o.History = append(o.History, evt)
	}
	return histRows.Err()
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
