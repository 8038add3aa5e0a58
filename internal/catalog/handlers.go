package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gehnahouse/backend-gehna/internal/common"
	"github.com/gehnahouse/backend-gehna/internal/goldprice"
)

var validate = validator.New()

// Handlers exposes public browsing and admin product management.
type Handlers struct {
	Svc   *Service
	Store *Store
	Log   zerolog.Logger
}

// List handles GET /products.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 24, 100)
	f := ListFilter{
		Metal:  strings.TrimSpace(r.URL.Query().Get("metal")),
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
	}
	products, total, err := h.Svc.List(r.Context(), f, page, perPage)
	if err != nil {
		h.Log.Error().Err(err).Msg("list products failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not list products", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": products,
		"meta": map[string]any{"page": page, "per_page": perPage, "total": total},
	})
}

// Get handles GET /products/{slug}.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	p, err := h.Svc.GetBySlug(r.Context(), slug)
	if err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		case errors.Is(err, goldprice.ErrUnavailable):
			common.JSONError(w, http.StatusServiceUnavailable, "PRICING_UNAVAILABLE", "pricing temporarily unavailable", nil)
		default:
			h.Log.Error().Err(err).Str("slug", slug).Msg("get product failed")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load product", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, p)
}

type productPayload struct {
	Slug            string          `json:"slug" validate:"required,min=3,max=120"`
	Name            string          `json:"name" validate:"required,min=3,max=200"`
	Description     string          `json:"description"`
	Metal           string          `json:"metal" validate:"required,oneof=gold_14k gold_18k gold_22k"`
	GoldWeightGrams decimal.Decimal `json:"gold_weight_grams"`
	Stones          []Stone         `json:"stones"`
	Images          []string        `json:"images"`
	IsActive        bool            `json:"is_active"`
}

func (p productPayload) toProduct() (Product, error) {
	if p.GoldWeightGrams.IsNegative() {
		return Product{}, errors.New("gold_weight_grams must not be negative")
	}
	for _, st := range p.Stones {
		if !st.CaratWeight.IsPositive() {
			return Product{}, errors.New("stone carat_weight must be positive")
		}
		if st.BaseValuePerCarat.IsNegative() {
			return Product{}, errors.New("stone base_value_per_carat must not be negative")
		}
	}
	return Product{
		Slug:            strings.ToLower(strings.TrimSpace(p.Slug)),
		Name:            strings.TrimSpace(p.Name),
		Description:     p.Description,
		Metal:           p.Metal,
		GoldWeightGrams: p.GoldWeightGrams,
		Stones:          p.Stones,
		Images:          p.Images,
		IsActive:        p.IsActive,
	}, nil
}

// Create handles POST /admin/products.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	p, err := payload.toProduct()
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	created, err := h.Store.Create(r.Context(), p)
	if err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			common.JSONError(w, http.StatusConflict, "DUPLICATE_SLUG", "a product with this slug already exists", nil)
			return
		}
		h.Log.Error().Err(err).Msg("create product failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not create product", nil)
		return
	}
	h.Svc.InvalidateCache(r.Context())
	common.JSONData(w, http.StatusCreated, created)
}

// Update handles PUT /admin/products/{id}.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	p, err := payload.toProduct()
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	p.ID = id
	updated, err := h.Store.Update(r.Context(), p)
	if err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		case errors.Is(err, ErrDuplicateSlug):
			common.JSONError(w, http.StatusConflict, "DUPLICATE_SLUG", "a product with this slug already exists", nil)
		default:
			h.Log.Error().Err(err).Msg("update product failed")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not update product", nil)
		}
		return
	}
	h.Svc.InvalidateCache(r.Context())
	common.JSONData(w, http.StatusOK, updated)
}

// Delete handles DELETE /admin/products/{id}; products are deactivated, not removed.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("delete product failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not delete product", nil)
		return
	}
	h.Svc.InvalidateCache(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
