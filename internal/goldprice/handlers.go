package goldprice

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gehnahouse/backend-gehna/internal/common"
)

// Handlers exposes the public price endpoint and admin cache controls.
type Handlers struct {
	Svc *Service
	Log zerolog.Logger
}

// Get handles GET /gold-price.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	price, err := h.Svc.Current(r.Context())
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			common.JSONError(w, http.StatusServiceUnavailable, "PRICING_UNAVAILABLE", "pricing temporarily unavailable", nil)
			return
		}
		h.Log.Error().Err(err).Msg("gold price lookup failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not fetch gold price", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"price_per_gram": price})
}

type overrideRequest struct {
	PricePerGram decimal.Decimal `json:"price_per_gram"`
}

// Override handles PUT /admin/gold-price.
func (h *Handlers) Override(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid override payload", nil)
		return
	}
	if !req.PricePerGram.IsPositive() {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "price_per_gram must be positive", nil)
		return
	}
	if err := h.Svc.Override(r.Context(), req.PricePerGram); err != nil {
		h.Log.Error().Err(err).Msg("gold price override failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not set gold price override", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"price_per_gram": req.PricePerGram})
}

// ClearOverride handles DELETE /admin/gold-price/override.
func (h *Handlers) ClearOverride(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.ClearOverride(r.Context()); err != nil {
		h.Log.Error().Err(err).Msg("clear gold price override failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not clear override", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Invalidate handles DELETE /admin/gold-price/cache.
func (h *Handlers) Invalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Invalidate(r.Context()); err != nil {
		h.Log.Error().Err(err).Msg("gold price cache invalidation failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not invalidate cache", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
