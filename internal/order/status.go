package order

import (
	"errors"
	"fmt"
	"strings"
)

// Status is an order's position in the fulfilment pipeline.
type Status string

const (
	StatusPending       Status = "pending"
	StatusOrderPlaced   Status = "order_placed"
	StatusAcknowledged  Status = "acknowledged"
	StatusManufacturing Status = "manufacturing"
	StatusShipping      Status = "shipping"
	StatusDelivered     Status = "delivered"
)

// ErrInvalidTransition marks a backward or repeated status move.
var ErrInvalidTransition = errors.New("invalid order status transition")

// ErrUnknownStatus marks an unrecognised status value.
var ErrUnknownStatus = errors.New("unknown order status")

var statusRank = map[Status]int{
	StatusPending:       0,
	StatusOrderPlaced:   1,
	StatusAcknowledged:  2,
	StatusManufacturing: 3,
	StatusShipping:      4,
	StatusDelivered:     5,
}

// ParseStatus normalises raw input into a Status. "paid" is accepted as an
// alias of order_placed for compatibility with older admin tooling.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if s == "paid" {
		return StatusOrderPlaced, nil
	}
	if _, ok := statusRank[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// CheckTransition enforces the forward-only pipeline. Skipping intermediate
// stages is allowed; moving backward or re-applying the current status is not.
func CheckTransition(from, to Status) error {
	fromRank, ok := statusRank[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	toRank, ok := statusRank[to]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if toRank <= fromRank {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// CrossesPaymentBoundary reports whether the transition takes an order from a
// pre-payment stage to order_placed or beyond. Skipping straight past
// order_placed still crosses the boundary.
func CrossesPaymentBoundary(from, to Status) bool {
	boundary := statusRank[StatusOrderPlaced]
	return statusRank[from] < boundary && statusRank[to] >= boundary
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool { return s == StatusDelivered }

// InTimeline reports whether the status appears on the customer-facing
// progress timeline. The pre-payment pending stage is hidden.
func (s Status) InTimeline() bool { return s != StatusPending }
