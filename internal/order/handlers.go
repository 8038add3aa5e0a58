package order

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gehnahouse/backend-gehna/internal/common"
)

// Handlers exposes customer-facing order endpoints.
type Handlers struct {
	Store *Store
	Log   zerolog.Logger
}

// List handles GET /orders for the authenticated customer.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerUUID(r)
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in to view orders", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20, 100)
	orders, err := h.Store.ListByCustomer(r.Context(), customerID, perPage, (page-1)*perPage)
	if err != nil {
		h.Log.Error().Err(err).Msg("list orders failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not list orders", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": orders,
		"meta": map[string]any{"page": page, "per_page": perPage},
	})
}

// Get handles GET /orders/{id}; the response embeds the status timeline with
// the pre-payment pending stage filtered out.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerUUID(r)
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in to view orders", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, err := h.Store.GetForCustomer(r.Context(), id, customerID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("get order failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load order", nil)
		return
	}
	timeline := make([]StatusEvent, 0, len(o.History))
	for _, evt := range o.History {
		if evt.Status.InTimeline() {
			timeline = append(timeline, evt)
		}
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"order":    o,
		"timeline": timeline,
	})
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
