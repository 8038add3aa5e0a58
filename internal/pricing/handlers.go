package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gehnahouse/backend-gehna/internal/common"
)

// Handlers exposes the admin config endpoints and the public quote endpoint.
type Handlers struct {
	Svc *Service
	// GoldPrice supplies the current gold price per gram when a quote request
	// does not carry one.
	GoldPrice func(ctx context.Context) (decimal.Decimal, error)
	Log       zerolog.Logger
}

// GetConfig handles GET /admin/pricing-config.
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Svc.Get(r.Context())
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			common.JSONError(w, http.StatusNotFound, "CONFIG_NOT_FOUND", "pricing config has not been set", nil)
			return
		}
		h.Log.Error().Err(err).Msg("load pricing config failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load pricing config", nil)
		return
	}
	common.JSONData(w, http.StatusOK, cfg)
}

// PutConfig handles PUT /admin/pricing-config with full-document replace semantics.
func (h *Handlers) PutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid config payload", nil)
		return
	}
	updatedBy := "admin"
	if id, ok := common.CustomerID(r.Context()); ok && id != "" {
		updatedBy = id
	}
	saved, err := h.Svc.Replace(r.Context(), cfg, updatedBy)
	if err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_CONFIG", err.Error(), nil)
			return
		}
		h.Log.Error().Err(err).Msg("replace pricing config failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not save pricing config", nil)
		return
	}
	common.JSONData(w, http.StatusOK, saved)
}

type quoteRequest struct {
	Stones           []DiamondComponent `json:"stones"`
	GoldWeightGrams  decimal.Decimal    `json:"gold_weight_grams"`
	GoldPricePerGram *decimal.Decimal   `json:"gold_price_per_gram,omitempty"`
}

// Quote handles POST /pricing/quote.
func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid quote payload", nil)
		return
	}
	goldPrice := decimal.Zero
	switch {
	case req.GoldPricePerGram != nil:
		goldPrice = *req.GoldPricePerGram
	case h.GoldPrice != nil:
		p, err := h.GoldPrice(r.Context())
		if err != nil {
			h.Log.Warn().Err(err).Msg("gold price unavailable for quote")
			common.JSONError(w, http.StatusServiceUnavailable, "PRICING_UNAVAILABLE", "pricing temporarily unavailable", nil)
			return
		}
		goldPrice = p
	}
	quote, err := h.Svc.Quote(r.Context(), req.Stones, req.GoldWeightGrams, goldPrice)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidWeight):
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_WEIGHT", err.Error(), nil)
		case errors.Is(err, ErrConfigNotFound):
			common.JSONError(w, http.StatusServiceUnavailable, "PRICING_UNAVAILABLE", "pricing temporarily unavailable", nil)
		default:
			h.Log.Error().Err(err).Msg("quote computation failed")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not compute quote", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, quote)
}
