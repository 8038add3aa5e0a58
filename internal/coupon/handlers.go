package coupon

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gehnahouse/backend-gehna/internal/common"
)

var validate = validator.New()

// Handlers exposes admin CRUD and the customer-facing preview endpoint.
type Handlers struct {
	Store *Store
	Svc   *Service
	Log   zerolog.Logger
}

type couponPayload struct {
	Code              string           `json:"code" validate:"required,min=3,max=32"`
	DiscountType      string           `json:"discount_type" validate:"required,oneof=percentage flat"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinOrderAmount    decimal.Decimal  `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	UsageLimit        *int32           `json:"usage_limit,omitempty" validate:"omitempty,gt=0"`
	PerCustomerLimit  int32            `json:"per_customer_limit" validate:"omitempty,gt=0"`
	StartsAt          time.Time        `json:"starts_at"`
	ExpiresAt         *time.Time       `json:"expires_at,omitempty"`
	IsActive          bool             `json:"is_active"`
}

func (p couponPayload) toCoupon() (Coupon, error) {
	if !p.DiscountValue.IsPositive() {
		return Coupon{}, errors.New("discount_value must be positive")
	}
	if p.MinOrderAmount.IsNegative() {
		return Coupon{}, errors.New("min_order_amount must not be negative")
	}
	if p.MaxDiscountAmount != nil {
		if DiscountType(p.DiscountType) != DiscountPercentage {
			return Coupon{}, errors.New("max_discount_amount applies to percentage coupons only")
		}
		if !p.MaxDiscountAmount.IsPositive() {
			return Coupon{}, errors.New("max_discount_amount must be positive")
		}
	}
	if p.ExpiresAt != nil && p.ExpiresAt.Before(p.StartsAt) {
		return Coupon{}, errors.New("expires_at must not precede starts_at")
	}
	perCustomer := p.PerCustomerLimit
	if perCustomer == 0 {
		perCustomer = 1
	}
	startsAt := p.StartsAt
	if startsAt.IsZero() {
		startsAt = time.Now().UTC()
	}
	return Coupon{
		Code:              p.Code,
		DiscountType:      DiscountType(p.DiscountType),
		DiscountValue:     p.DiscountValue,
		MinOrderAmount:    p.MinOrderAmount,
		MaxDiscountAmount: p.MaxDiscountAmount,
		UsageLimit:        p.UsageLimit,
		PerCustomerLimit:  perCustomer,
		StartsAt:          startsAt,
		ExpiresAt:         p.ExpiresAt,
		IsActive:          p.IsActive,
	}, nil
}

// Create handles POST /admin/coupons.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid coupon payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	c, err := payload.toCoupon()
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	created, err := h.Store.Create(r.Context(), c)
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			common.JSONError(w, http.StatusConflict, "DUPLICATE_CODE", "a coupon with this code already exists", nil)
			return
		}
		h.Log.Error().Err(err).Msg("create coupon failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not create coupon", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, created)
}

// List handles GET /admin/coupons.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20, 100)
	coupons, total, err := h.Store.List(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		h.Log.Error().Err(err).Msg("list coupons failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not list coupons", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": coupons,
		"meta": map[string]any{"page": page, "per_page": perPage, "total": total},
	})
}

// Get handles GET /admin/coupons/{id}.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid coupon id", nil)
		return
	}
	c, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("get coupon failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load coupon", nil)
		return
	}
	common.JSONData(w, http.StatusOK, c)
}

// Update handles PUT /admin/coupons/{id}.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid coupon id", nil)
		return
	}
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid coupon payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	c, err := payload.toCoupon()
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	c.ID = id
	updated, err := h.Store.Update(r.Context(), c)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
		case errors.Is(err, ErrDuplicateCode):
			common.JSONError(w, http.StatusConflict, "DUPLICATE_CODE", "a coupon with this code already exists", nil)
		default:
			h.Log.Error().Err(err).Msg("update coupon failed")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not update coupon", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, updated)
}

// Delete handles DELETE /admin/coupons/{id}.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid coupon id", nil)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("delete coupon failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not delete coupon", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type previewRequest struct {
	Code        string          `json:"code" validate:"required"`
	OrderAmount decimal.Decimal `json:"order_amount"`
}

// Preview handles POST /coupons/preview for authenticated customers.
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerUUID(r)
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in to use coupons", nil)
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid preview payload", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	res, err := h.Svc.Preview(r.Context(), req.Code, customerID, req.OrderAmount)
	if err != nil {
		if rej, ok := AsRejection(err); ok {
			common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_REJECTED", rej.Message,
				map[string]any{"reason": rej.Reason})
			return
		}
		h.Log.Error().Err(err).Msg("coupon preview failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not validate coupon", nil)
		return
	}
	common.JSONData(w, http.StatusOK, res)
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
