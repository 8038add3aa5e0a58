package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gehnahouse/backend-gehna/internal/coupon"
)

type stubStore struct {
	order Order
}

func (s *stubStore) GetByID(_ context.Context, id uuid.UUID) (Order, error) {
	if id != s.order.ID {
		return Order{}, ErrOrderNotFound
	}
	return s.order, nil
}

func (s *stubStore) UpdateStatus(_ context.Context, id uuid.UUID, to Status, _ *string) (Order, error) {
	if id != s.order.ID {
		return Order{}, ErrOrderNotFound
	}
	s.order.Status = to
	return s.order, nil
}

type stubRedeemer struct {
	calls    int
	code     string
	amount   decimal.Decimal
	discount decimal.Decimal
	err      error
}

func (r *stubRedeemer) Redeem(_ context.Context, code string, _, _ uuid.UUID, orderAmount, discount decimal.Decimal) (coupon.RedeemResult, error) {
	r.calls++
	r.code = code
	r.amount = orderAmount
	r.discount = discount
	if r.err != nil {
		return coupon.RedeemResult{}, r.err
	}
	return coupon.RedeemResult{Discount: discount}, nil
}

func discountedOrder(status Status) Order {
	code := "WELCOME10"
	return Order{
		ID:             uuid.New(),
		CustomerID:     uuid.New(),
		Status:         status,
		Total:          decimal.RequireFromString("35657.70"),
		DiscountAmount: decimal.RequireFromString("1000.00"),
		CouponCode:     &code,
	}
}

func newTestService(store *stubStore, redeemer *stubRedeemer) *Service {
	return &Service{store: store, coupons: redeemer, log: zerolog.Nop()}
}

func TestChangeStatusRedeemsOnPaymentConfirmation(t *testing.T) {
	store := &stubStore{order: discountedOrder(StatusPending)}
	redeemer := &stubRedeemer{}
	svc := newTestService(store, redeemer)

	updated, err := svc.ChangeStatus(context.Background(), store.order.ID, StatusOrderPlaced, nil)
	require.NoError(t, err)
	require.Equal(t, StatusOrderPlaced, updated.Status)
	require.Equal(t, 1, redeemer.calls)
	require.Equal(t, "WELCOME10", redeemer.code)
	// Gross payable and the frozen discount go to the ledger untouched.
	require.True(t, redeemer.amount.Equal(decimal.RequireFromString("36657.70")), "got %s", redeemer.amount)
	require.True(t, redeemer.discount.Equal(decimal.RequireFromString("1000.00")), "got %s", redeemer.discount)
}

func TestChangeStatusRedeemsWhenSkippingPastPayment(t *testing.T) {
	// A skip transition that jumps over order_placed still consumes the slot.
	for _, to := range []Status{StatusAcknowledged, StatusManufacturing, StatusDelivered} {
		store := &stubStore{order: discountedOrder(StatusPending)}
		redeemer := &stubRedeemer{}
		svc := newTestService(store, redeemer)

		updated, err := svc.ChangeStatus(context.Background(), store.order.ID, to, nil)
		require.NoError(t, err, "to %s", to)
		require.Equal(t, to, updated.Status)
		require.Equal(t, 1, redeemer.calls, "to %s", to)
		require.True(t, redeemer.discount.Equal(decimal.RequireFromString("1000.00")))
	}
}

func TestChangeStatusDoesNotRedeemAfterPayment(t *testing.T) {
	store := &stubStore{order: discountedOrder(StatusOrderPlaced)}
	redeemer := &stubRedeemer{}
	svc := newTestService(store, redeemer)

	_, err := svc.ChangeStatus(context.Background(), store.order.ID, StatusAcknowledged, nil)
	require.NoError(t, err)
	require.Zero(t, redeemer.calls)
}

func TestChangeStatusWithoutCoupon(t *testing.T) {
	o := discountedOrder(StatusPending)
	o.CouponCode = nil
	store := &stubStore{order: o}
	redeemer := &stubRedeemer{}
	svc := newTestService(store, redeemer)

	_, err := svc.ChangeStatus(context.Background(), store.order.ID, StatusOrderPlaced, nil)
	require.NoError(t, err)
	require.Zero(t, redeemer.calls)
}

func TestChangeStatusKeepsFrozenDiscountOnLateRejection(t *testing.T) {
	store := &stubStore{order: discountedOrder(StatusPending)}
	redeemer := &stubRedeemer{err: coupon.ErrUsageLimitReached}
	svc := newTestService(store, redeemer)

	updated, err := svc.ChangeStatus(context.Background(), store.order.ID, StatusOrderPlaced, nil)
	require.NoError(t, err)
	require.Equal(t, StatusOrderPlaced, updated.Status)
	require.True(t, updated.DiscountAmount.Equal(decimal.RequireFromString("1000.00")))
}

func TestChangeStatusAbortsOnRedeemFailure(t *testing.T) {
	store := &stubStore{order: discountedOrder(StatusPending)}
	redeemer := &stubRedeemer{err: errors.New("redeem tx failed")}
	svc := newTestService(store, redeemer)

	_, err := svc.ChangeStatus(context.Background(), store.order.ID, StatusOrderPlaced, nil)
	require.Error(t, err)
	require.Equal(t, StatusPending, store.order.Status)
}

func TestChangeStatusRejectsBackwardMove(t *testing.T) {
	store := &stubStore{order: discountedOrder(StatusShipping)}
	redeemer := &stubRedeemer{}
	svc := newTestService(store, redeemer)

	_, err := svc.ChangeStatus(context.Background(), store.order.ID, StatusAcknowledged, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Zero(t, redeemer.calls)
}
