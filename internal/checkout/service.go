package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gehnahouse/backend-gehna/internal/cart"
	"github.com/gehnahouse/backend-gehna/internal/coupon"
	"github.com/gehnahouse/backend-gehna/internal/events"
	"github.com/gehnahouse/backend-gehna/internal/order"
)

// Service turns a priced cart into a pending order in one transaction.
type Service struct {
	pool   *pgxpool.Pool
	carts  *cart.Service
	orders *order.Store
	bus    *events.Bus
	log    zerolog.Logger
}

// NewService constructs a checkout service.
func NewService(pool *pgxpool.Pool, carts *cart.Service, orders *order.Store, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{pool: pool, carts: carts, orders: orders, bus: bus, log: log}
}

// Checkout prices the cart from a single config and gold price snapshot,
// writes the order with its lines and the initial pending history row, then
// empties the cart. The coupon is not redeemed here; redemption happens when
// payment is confirmed and the order moves to order_placed.
func (s *Service) Checkout(ctx context.Context, customerID uuid.UUID) (order.Order, error) {
	quote, err := s.carts.QuoteFor(ctx, customerID)
	if err != nil {
		return order.Order{}, err
	}
	if quote.CouponRejection != nil {
		// An attached coupon that stopped being redeemable blocks checkout;
		// the customer removes it to proceed without the discount.
		return order.Order{}, rejectionFor(*quote.CouponRejection)
	}

	items := make([]order.Item, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		items = append(items, order.Item{
			ProductID:       line.ProductID,
			Name:            line.Name,
			Quantity:        line.Quantity,
			GoldWeightGrams: line.GoldWeightGrams,
			UnitPrice:       line.UnitTotal,
			LineTotal:       line.LineTotal.Round(2),
		})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return order.Order{}, fmt.Errorf("begin checkout tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := s.orders.CreateTx(ctx, tx, order.Order{
		CustomerID:        customerID,
		SubtotalBeforeTax: quote.SubtotalBeforeTax.Round(2),
		GST:               quote.GST.Round(2),
		DiscountAmount:    quote.Discount,
		Total:             quote.Total,
		CouponCode:        quote.CouponCode,
		Items:             items,
	})
	if err != nil {
		return order.Order{}, err
	}
	if err := s.carts.Store().ClearTx(ctx, tx, quote.CartID); err != nil {
		return order.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("commit checkout tx: %w", err)
	}

	if s.bus != nil {
		payload := map[string]any{
			"order_id":    o.ID,
			"customer_id": o.CustomerID,
			"total":       o.Total,
		}
		if err := s.bus.Publish(ctx, events.TopicOrderCreated, payload); err != nil {
			s.log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("publish order created event failed")
		}
	}
	return o, nil
}

func rejectionFor(reason coupon.Reason) error {
	switch reason {
	case coupon.ReasonNotFound:
		return coupon.ErrNotFound
	case coupon.ReasonInactive:
		return coupon.ErrInactive
	case coupon.ReasonNotStarted:
		return coupon.ErrNotStarted
	case coupon.ReasonExpired:
		return coupon.ErrExpired
	case coupon.ReasonBelowMinimum:
		return coupon.ErrBelowMinimum
	case coupon.ReasonUsageLimitReached:
		return coupon.ErrUsageLimitReached
	default:
		return coupon.ErrPerCustomerLimitReached
	}
}
