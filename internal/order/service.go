package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gehnahouse/backend-gehna/internal/coupon"
	"github.com/gehnahouse/backend-gehna/internal/events"
	"github.com/gehnahouse/backend-gehna/internal/obs"
)

// CouponRedeemer consumes a coupon usage slot when an order is confirmed paid.
// The discount is the amount frozen on the order at checkout; the redemption
// ledger records it as-is.
type CouponRedeemer interface {
	Redeem(ctx context.Context, code string, customerID, orderID uuid.UUID, orderAmount, discount decimal.Decimal) (coupon.RedeemResult, error)
}

// transitionStore is the slice of Store that status transitions need.
type transitionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to Status, note *string) (Order, error)
}

// Service coordinates status transitions with coupon redemption and events.
type Service struct {
	store   transitionStore
	coupons CouponRedeemer
	bus     *events.Bus
	log     zerolog.Logger
}

// NewService constructs an order service. coupons may be nil when redemption
// wiring is not needed.
func NewService(store *Store, coupons CouponRedeemer, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{store: store, coupons: coupons, bus: bus, log: log}
}

// ChangeStatus applies a forward transition. Any transition crossing the
// payment boundary (order_placed, including skips past it) redeems the
// order's coupon exactly once; the redemption is idempotent per order, so a
// replayed transition attempt cannot double-spend.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, to Status, note *string) (Order, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		countTransition(to, "not_found")
		return Order{}, err
	}
	if err := CheckTransition(current.Status, to); err != nil {
		countTransition(to, "rejected")
		return Order{}, err
	}

	if CrossesPaymentBoundary(current.Status, to) && current.CouponCode != nil && s.coupons != nil {
		// Validate against the payable amount the discount was computed on.
		gross := current.Total.Add(current.DiscountAmount)
		_, err := s.coupons.Redeem(ctx, *current.CouponCode, current.CustomerID, current.ID, gross, current.DiscountAmount)
		if err != nil {
			if rej, ok := coupon.AsRejection(err); ok {
				// The coupon passed validation at checkout but lost its slot
				// before payment confirmation. The order keeps its frozen
				// discount; record the situation for operator follow-up.
				s.log.Warn().
					Str("order_id", current.ID.String()).
					Str("reason", string(rej.Reason)).
					Msg("coupon no longer redeemable at payment confirmation")
			} else {
				countTransition(to, "error")
				return Order{}, err
			}
		}
	}

	updated, err := s.store.UpdateStatus(ctx, id, to, note)
	if err != nil {
		countTransition(to, "rejected")
		return Order{}, err
	}
	countTransition(to, "ok")

	if s.bus != nil {
		payload := map[string]any{
			"order_id":    updated.ID,
			"customer_id": updated.CustomerID,
			"from":        current.Status,
			"to":          updated.Status,
		}
		if err := s.bus.Publish(ctx, events.TopicOrderStatusChanged, payload); err != nil {
			s.log.Warn().Err(err).Str("order_id", updated.ID.String()).Msg("publish status change event failed")
		}
	}
	return updated, nil
}

func countTransition(to Status, result string) {
	if obs.OrderTransitionTotal != nil {
		obs.OrderTransitionTotal.WithLabelValues(string(to), result).Inc()
	}
}
