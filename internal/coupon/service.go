package coupon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gehnahouse/backend-gehna/internal/events"
	"github.com/gehnahouse/backend-gehna/internal/obs"
)

// PreviewResult is a non-binding validation and discount computation.
type PreviewResult struct {
	Coupon   Coupon          `json:"coupon"`
	Discount decimal.Decimal `json:"discount"`
}

// Service combines the store with the pure validation/discount engine.
type Service struct {
	store *Store
	bus   *events.Bus
	log   zerolog.Logger
	now   func() time.Time
}

// NewService constructs a coupon service.
func NewService(store *Store, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{store: store, bus: bus, log: log, now: time.Now}
}

// Preview validates a code for the given customer and order amount without any
// side effect. Rejections come back as RejectionError values.
func (s *Service) Preview(ctx context.Context, code string, customerID uuid.UUID, orderAmount decimal.Decimal) (PreviewResult, error) {
	c, err := s.store.GetByCode(ctx, code)
	if err != nil {
		countValidation(err)
		return PreviewResult{}, err
	}
	prior, err := s.store.CountCustomerRedemptions(ctx, c.ID, customerID)
	if err != nil {
		return PreviewResult{}, err
	}
	if err := Validate(c, orderAmount, prior, s.now()); err != nil {
		countValidation(err)
		return PreviewResult{}, err
	}
	countValidation(nil)
	return PreviewResult{Coupon: c, Discount: ComputeDiscount(c, orderAmount)}, nil
}

// Redeem consumes a usage slot for the order, exactly once per order. Called on
// the payment-confirmation boundary, not at checkout. The discount is the
// amount frozen on the order; the redemption row records it unchanged even if
// the coupon's terms were edited after checkout.
func (s *Service) Redeem(ctx context.Context, code string, customerID, orderID uuid.UUID, orderAmount, discount decimal.Decimal) (RedeemResult, error) {
	res, err := s.store.Redeem(ctx, code, customerID, orderID, orderAmount, discount, s.now())
	if err != nil {
		if rej, ok := AsRejection(err); ok {
			countRedemption(string(rej.Reason))
		} else {
			countRedemption("error")
		}
		return RedeemResult{}, err
	}
	if res.Replayed {
		countRedemption("replayed")
		return res, nil
	}
	countRedemption("ok")
	if s.bus != nil {
		payload := map[string]any{
			"code":        res.Coupon.Code,
			"order_id":    orderID,
			"customer_id": customerID,
			"amount":      res.Discount,
		}
		if err := s.bus.Publish(ctx, events.TopicCouponRedeemed, payload); err != nil {
			s.log.Warn().Err(err).Str("code", res.Coupon.Code).Msg("publish coupon redeemed event failed")
		}
	}
	return res, nil
}

func countValidation(err error) {
	if obs.CouponValidationTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		if rej, ok := AsRejection(err); ok {
			result = string(rej.Reason)
		}
	}
	obs.CouponValidationTotal.WithLabelValues(result).Inc()
}

func countRedemption(result string) {
	if obs.CouponRedemptionTotal != nil {
		obs.CouponRedemptionTotal.WithLabelValues(result).Inc()
	}
}
