package coupon

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType distinguishes percentage coupons from flat-amount coupons.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// Coupon is a discount code managed by the back office. Codes are stored
// upper-cased and matched case-insensitively.
type Coupon struct {
	ID                uuid.UUID        `json:"id"`
	Code              string           `json:"code"`
	DiscountType      DiscountType     `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinOrderAmount    decimal.Decimal  `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	UsageLimit        *int32           `json:"usage_limit,omitempty"`
	PerCustomerLimit  int32            `json:"per_customer_limit"`
	StartsAt          time.Time        `json:"starts_at"`
	ExpiresAt         *time.Time       `json:"expires_at,omitempty"`
	IsActive          bool             `json:"is_active"`
	TotalUses         int32            `json:"total_uses"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Reason identifies why a coupon was rejected, in customer-facing form.
type Reason string

const (
	ReasonNotFound                Reason = "not_found"
	ReasonInactive                Reason = "inactive"
	ReasonNotStarted              Reason = "not_started"
	ReasonExpired                 Reason = "expired"
	ReasonBelowMinimum            Reason = "below_minimum"
	ReasonUsageLimitReached       Reason = "usage_limit_reached"
	ReasonPerCustomerLimitReached Reason = "per_customer_limit_reached"
)

// RejectionError carries the specific rejection reason. Handlers surface the
// reason so the customer sees an actionable message.
type RejectionError struct {
	Reason  Reason
	Message string
}

func (e *RejectionError) Error() string { return e.Message }

// Sentinel rejections, one per reason. Compare with errors.Is.
var (
	ErrNotFound                = &RejectionError{Reason: ReasonNotFound, Message: "coupon code not found"}
	ErrInactive                = &RejectionError{Reason: ReasonInactive, Message: "coupon is not active"}
	ErrNotStarted              = &RejectionError{Reason: ReasonNotStarted, Message: "coupon is not valid yet"}
	ErrExpired                 = &RejectionError{Reason: ReasonExpired, Message: "coupon has expired"}
	ErrBelowMinimum            = &RejectionError{Reason: ReasonBelowMinimum, Message: "order amount is below the coupon minimum"}
	ErrUsageLimitReached       = &RejectionError{Reason: ReasonUsageLimitReached, Message: "coupon usage limit has been reached"}
	ErrPerCustomerLimitReached = &RejectionError{Reason: ReasonPerCustomerLimitReached, Message: "coupon already used the maximum number of times"}
)

// AsRejection extracts a RejectionError from the chain if present.
func AsRejection(err error) (*RejectionError, bool) {
	var target *RejectionError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Validate applies the redeemability checks in priority order and returns the
// first failing one. An expired and inactive coupon reports Inactive, not
// Expired. NotFound is produced by the store layer before this runs.
func Validate(c Coupon, orderAmount decimal.Decimal, customerPriorRedemptions int32, now time.Time) error {
	if !c.IsActive {
		return ErrInactive
	}
	if now.Before(c.StartsAt) {
		return ErrNotStarted
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return ErrExpired
	}
	if orderAmount.LessThan(c.MinOrderAmount) {
		return ErrBelowMinimum
	}
	if c.UsageLimit != nil && c.TotalUses >= *c.UsageLimit {
		return ErrUsageLimitReached
	}
	if customerPriorRedemptions >= c.PerCustomerLimit {
		return ErrPerCustomerLimitReached
	}
	return nil
}

// ComputeDiscount returns the discount amount for a validated coupon, rounded
// to two decimals. A flat discount never exceeds the order amount; a
// percentage discount never exceeds the configured cap.
func ComputeDiscount(c Coupon, orderAmount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discount = orderAmount.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
		if c.MaxDiscountAmount != nil && discount.GreaterThan(*c.MaxDiscountAmount) {
			discount = *c.MaxDiscountAmount
		}
	case DiscountFlat:
		discount = c.DiscountValue
		if discount.GreaterThan(orderAmount) {
			discount = orderAmount
		}
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2)
}
