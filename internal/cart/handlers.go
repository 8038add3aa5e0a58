package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gehnahouse/backend-gehna/internal/catalog"
	"github.com/gehnahouse/backend-gehna/internal/common"
	"github.com/gehnahouse/backend-gehna/internal/coupon"
	"github.com/gehnahouse/backend-gehna/internal/goldprice"
)

var validate = validator.New()

// Handlers exposes the customer cart endpoints. All of them require auth.
type Handlers struct {
	Svc     *Service
	Catalog *catalog.Store
	Coupons *coupon.Service
	Log     zerolog.Logger
}

// Get handles GET /cart.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerUUID(r)
	if !ok {
		unauthorized(w)
		return
	}
	c, err := h.Svc.Store().GetOrCreate(r.Context(), customerID)
	if err != nil {
		h.Log.Error().Err(err).Msg("load cart failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load cart", nil)
		return
	}
	common.JSONData(w, http.StatusOK, c)
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int32     `json:"quantity" validate:"required,gt=0,lte=20"`
}

// AddItem handles POST /cart/items.
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerUUID(r)
	if !ok {
		unauthorized(w)
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item payload", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	if _, err := h.Catalog.GetByID(r.Context(), req.ProductID); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("verify product failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not add item", nil)
		return
	}
	c, err := h.Svc.Store().GetOrCreate(r.Context(), customerID)
	if err != nil {
		h.Log.Error().Err(err).Msg("load cart failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not add item", nil)
		return
	}
	if err := h.Svc.Store().AddItem(r.Context(), c.ID, req.ProductID, req.Quantity); err != nil {
		h.Log.Error().Err(err).Msg("add cart item failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not add item", nil)
		return
	}
	updated, err := h.Svc.Store().GetOrCreate(r.Context(), customerID)
	if err != nil {
		h.Log.Error().Err(err).Msg("reload cart failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load cart", nil)
		return
	}
	common.JSONData(w, http.StatusOK, updated)
}

type updateItemRequest struct {
	Quantity int32 `json:"quantity" validate:"required,gt=0,lte=20"`
}

// UpdateItem handles PATCH /cart/items/{id}.
func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerUUID(r)
	if !ok {
		unauthorized(w)
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item payload", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	c, err := h.Svc.Store().GetOrCreate(r.Context(), customerID)
	if err != nil {
		h.Log.Error().Err(err).Msg("load cart failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not update item", nil)
		return
	}
	if err := h.Svc.Store().UpdateItem(r.Context(), c.ID, itemID, req.Quantity); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("update cart item failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not update item", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveItem handles DELETE /cart/items/{id}.
func (h *Handlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerUUID(r)
	if !ok {
		unauthorized(w)
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	c, err := h.Svc.Store().GetOrCreate(r.Context(), customerID)
	if err != nil {
		h.Log.Error().Err(err).Msg("load cart failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not remove item", nil)
		return
	}
	if err := h.Svc.Store().RemoveItem(r.Context(), c.ID, itemID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("remove cart item failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not remove item", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// ApplyCoupon handles POST /cart/coupon. The code is validated against the
// current cart total before it is attached.
func (h *Handlers) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerUUID(r)
	if !ok {
		unauthorized(w)
		return
	}
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid coupon payload", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	quote, err := h.Svc.QuoteFor(r.Context(), customerID)
	if err != nil {
		h.renderQuoteError(w, err)
		return
	}
	if _, err := h.Coupons.Preview(r.Context(), req.Code, customerID, quote.Total.Add(quote.Discount)); err != nil {
		if rej, ok := coupon.AsRejection(err); ok {
			common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_REJECTED", rej.Message,
				map[string]any{"reason": rej.Reason})
			return
		}
		h.Log.Error().Err(err).Msg("validate coupon failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not apply coupon", nil)
		return
	}
	if err := h.Svc.Store().SetCoupon(r.Context(), quote.CartID, &req.Code); err != nil {
		h.Log.Error().Err(err).Msg("attach coupon failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not apply coupon", nil)
		return
	}
	h.Quote(w, r)
}

// RemoveCoupon handles DELETE /cart/coupon.
func (h *Handlers) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerUUID(r)
	if !ok {
		unauthorized(w)
		return
	}
	c, err := h.Svc.Store().GetOrCreate(r.Context(), customerID)
	if err != nil {
		h.Log.Error().Err(err).Msg("load cart failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not remove coupon", nil)
		return
	}
	if err := h.Svc.Store().SetCoupon(r.Context(), c.ID, nil); err != nil {
		h.Log.Error().Err(err).Msg("detach coupon failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not remove coupon", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Quote handles GET /cart/quote.
func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerUUID(r)
	if !ok {
		unauthorized(w)
		return
	}
	quote, err := h.Svc.QuoteFor(r.Context(), customerID)
	if err != nil {
		h.renderQuoteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, quote)
}

func (h *Handlers) renderQuoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart has no items", nil)
	case errors.Is(err, goldprice.ErrUnavailable):
		common.JSONError(w, http.StatusServiceUnavailable, "PRICING_UNAVAILABLE", "pricing temporarily unavailable", nil)
	default:
		h.Log.Error().Err(err).Msg("cart quote failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not quote cart", nil)
	}
}

func customerUUID(r *http.Request) (uuid.UUID, bool) {
	raw, ok := common.CustomerID(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func unauthorized(w http.ResponseWriter) {
	common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in to use the cart", nil)
}
