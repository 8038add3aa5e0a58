package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gehnahouse/backend-gehna/internal/common"
)

// AdminHandlers exposes the back-office order endpoints.
type AdminHandlers struct {
	Store *Store
	Svc   *Service
	Log   zerolog.Logger
}

// List handles GET /admin/orders with an optional ?status= filter.
func (h *AdminHandlers) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20, 100)
	var statusFilter *Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		s, err := ParseStatus(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown status filter", nil)
			return
		}
		statusFilter = &s
	}
	orders, err := h.Store.ListAll(r.Context(), statusFilter, perPage, (page-1)*perPage)
	if err != nil {
		h.Log.Error().Err(err).Msg("admin list orders failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not list orders", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": orders,
		"meta": map[string]any{"page": page, "per_page": perPage},
	})
}

// Get handles GET /admin/orders/{id}.
func (h *AdminHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("admin get order failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load order", nil)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

type statusChangeRequest struct {
	Status string  `json:"status"`
	Note   *string `json:"note,omitempty"`
}

// ChangeStatus handles PATCH /admin/orders/{id}/status.
func (h *AdminHandlers) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid status payload", nil)
		return
	}
	to, err := ParseStatus(req.Status)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "UNKNOWN_STATUS", err.Error(), nil)
		return
	}
	updated, err := h.Svc.ChangeStatus(r.Context(), id, to, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			common.JSONError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
		default:
			h.Log.Error().Err(err).Msg("change order status failed")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not update order status", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, updated)
}
