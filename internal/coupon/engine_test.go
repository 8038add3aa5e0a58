package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func i32(v int32) *int32 { return &v }

func baseCoupon() Coupon {
	return Coupon{
		Code:             "FESTIVE10",
		DiscountType:     DiscountPercentage,
		DiscountValue:    dec("10"),
		MinOrderAmount:   dec("0"),
		PerCustomerLimit: 1,
		StartsAt:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:         true,
	}
}

func TestValidateOkForRedeemableCoupon(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, Validate(baseCoupon(), dec("5000"), 0, now))
}

func TestValidateRejectionPriorityOrder(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-24 * time.Hour)

	t.Run("inactive beats expired", func(t *testing.T) {
		c := baseCoupon()
		c.IsActive = false
		c.ExpiresAt = &expired
		require.ErrorIs(t, Validate(c, dec("5000"), 0, now), ErrInactive)
	})

	t.Run("not started beats below minimum", func(t *testing.T) {
		c := baseCoupon()
		c.StartsAt = now.Add(time.Hour)
		c.MinOrderAmount = dec("10000")
		require.ErrorIs(t, Validate(c, dec("5000"), 0, now), ErrNotStarted)
	})

	t.Run("expired beats usage limit", func(t *testing.T) {
		c := baseCoupon()
		c.ExpiresAt = &expired
		c.UsageLimit = i32(1)
		c.TotalUses = 1
		require.ErrorIs(t, Validate(c, dec("5000"), 0, now), ErrExpired)
	})

	t.Run("below minimum beats per customer limit", func(t *testing.T) {
		c := baseCoupon()
		c.MinOrderAmount = dec("10000")
		require.ErrorIs(t, Validate(c, dec("5000"), 5, now), ErrBelowMinimum)
	})

	t.Run("usage limit beats per customer limit", func(t *testing.T) {
		c := baseCoupon()
		c.UsageLimit = i32(50)
		c.TotalUses = 50
		require.ErrorIs(t, Validate(c, dec("5000"), 5, now), ErrUsageLimitReached)
	})
}

func TestValidateUsageLimitReachedEvenWhenOtherwiseValid(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c := baseCoupon()
	c.UsageLimit = i32(50)
	c.TotalUses = 50
	require.ErrorIs(t, Validate(c, dec("99999"), 0, now), ErrUsageLimitReached)
}

func TestValidatePerCustomerLimit(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c := baseCoupon()
	require.ErrorIs(t, Validate(c, dec("5000"), 1, now), ErrPerCustomerLimitReached)

	c.PerCustomerLimit = 3
	require.NoError(t, Validate(c, dec("5000"), 2, now))
	require.ErrorIs(t, Validate(c, dec("5000"), 3, now), ErrPerCustomerLimitReached)
}

func TestValidateExpiryIsInclusive(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c := baseCoupon()
	c.ExpiresAt = &now
	require.NoError(t, Validate(c, dec("5000"), 0, now))

	later := now.Add(time.Second)
	require.ErrorIs(t, Validate(c, dec("5000"), 0, later), ErrExpired)
}

func TestValidateMinimumBoundary(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c := baseCoupon()
	c.MinOrderAmount = dec("5000")
	require.NoError(t, Validate(c, dec("5000"), 0, now))
	require.ErrorIs(t, Validate(c, dec("4999.99"), 0, now), ErrBelowMinimum)
}

func TestComputeDiscountPercentageCappedAtMax(t *testing.T) {
	c := baseCoupon()
	c.MaxDiscountAmount = decPtr("1000")

	// 10% of 15000 = 1500, capped to 1000
	require.True(t, ComputeDiscount(c, dec("15000")).Equal(dec("1000")))
	// Under the cap, the raw percentage applies.
	require.True(t, ComputeDiscount(c, dec("8000")).Equal(dec("800")))
}

func TestComputeDiscountPercentageUncapped(t *testing.T) {
	c := baseCoupon()
	require.True(t, ComputeDiscount(c, dec("15000")).Equal(dec("1500")))
}

func TestComputeDiscountFlatNeverExceedsOrderAmount(t *testing.T) {
	c := baseCoupon()
	c.DiscountType = DiscountFlat
	c.DiscountValue = dec("500")

	require.True(t, ComputeDiscount(c, dec("2000")).Equal(dec("500")))
	require.True(t, ComputeDiscount(c, dec("300")).Equal(dec("300")))
	require.True(t, ComputeDiscount(c, dec("0")).IsZero())
}

func TestComputeDiscountRoundsToTwoDecimals(t *testing.T) {
	c := baseCoupon()
	c.DiscountValue = dec("7.5")
	// 7.5% of 333.33 = 24.99975 → 25.00
	require.True(t, ComputeDiscount(c, dec("333.33")).Equal(dec("25.00")))
}
