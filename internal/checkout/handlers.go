package checkout

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gehnahouse/backend-gehna/internal/cart"
	"github.com/gehnahouse/backend-gehna/internal/common"
	"github.com/gehnahouse/backend-gehna/internal/coupon"
	"github.com/gehnahouse/backend-gehna/internal/goldprice"
)

// Handlers exposes the checkout endpoint. The route is wrapped with the
// idempotency-key middleware so a retried request cannot create two orders.
type Handlers struct {
	Svc *Service
	Log zerolog.Logger
}

// Checkout handles POST /checkout.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	raw, ok := common.CustomerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in to check out", nil)
		return
	}
	customerID, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in to check out", nil)
		return
	}
	o, err := h.Svc.Checkout(r.Context(), customerID)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrEmptyCart):
			common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart has no items", nil)
		case errors.Is(err, goldprice.ErrUnavailable):
			common.JSONError(w, http.StatusServiceUnavailable, "PRICING_UNAVAILABLE", "pricing temporarily unavailable", nil)
		default:
			if rej, ok := coupon.AsRejection(err); ok {
				common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_REJECTED", rej.Message,
					map[string]any{"reason": rej.Reason})
				return
			}
			h.Log.Error().Err(err).Msg("checkout failed")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not complete checkout", nil)
		}
		return
	}
	common.JSONData(w, http.StatusCreated, o)
}
