package order

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want Status
	}{
		{"pending", StatusPending},
		{"order_placed", StatusOrderPlaced},
		{"paid", StatusOrderPlaced},
		{"PAID", StatusOrderPlaced},
		{" Acknowledged ", StatusAcknowledged},
		{"manufacturing", StatusManufacturing},
		{"shipping", StatusShipping},
		{"delivered", StatusDelivered},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}

	_, err := ParseStatus("cancelled")
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestCheckTransitionForwardOnly(t *testing.T) {
	require.NoError(t, CheckTransition(StatusPending, StatusOrderPlaced))
	require.NoError(t, CheckTransition(StatusOrderPlaced, StatusAcknowledged))
	require.NoError(t, CheckTransition(StatusAcknowledged, StatusShipping))
	require.NoError(t, CheckTransition(StatusPending, StatusDelivered))

	require.ErrorIs(t, CheckTransition(StatusShipping, StatusAcknowledged), ErrInvalidTransition)
	require.ErrorIs(t, CheckTransition(StatusDelivered, StatusShipping), ErrInvalidTransition)
	require.ErrorIs(t, CheckTransition(StatusManufacturing, StatusManufacturing), ErrInvalidTransition)
}

func TestCrossesPaymentBoundary(t *testing.T) {
	// Direct move onto the boundary and skips straight past it both count.
	require.True(t, CrossesPaymentBoundary(StatusPending, StatusOrderPlaced))
	require.True(t, CrossesPaymentBoundary(StatusPending, StatusAcknowledged))
	require.True(t, CrossesPaymentBoundary(StatusPending, StatusDelivered))

	require.False(t, CrossesPaymentBoundary(StatusOrderPlaced, StatusAcknowledged))
	require.False(t, CrossesPaymentBoundary(StatusAcknowledged, StatusManufacturing))
	require.False(t, CrossesPaymentBoundary(StatusShipping, StatusDelivered))
}

func TestDeliveredIsTerminal(t *testing.T) {
	require.True(t, StatusDelivered.IsTerminal())
	require.False(t, StatusShipping.IsTerminal())
	for _, to := range []Status{StatusPending, StatusOrderPlaced, StatusShipping} {
		require.Error(t, CheckTransition(StatusDelivered, to))
	}
}

func TestPendingHiddenFromTimeline(t *testing.T) {
	require.False(t, StatusPending.InTimeline())
	for _, s := range []Status{StatusOrderPlaced, StatusAcknowledged, StatusManufacturing, StatusShipping, StatusDelivered} {
		require.True(t, s.InTimeline(), "status %s", s)
	}
}
