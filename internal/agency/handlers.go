package agency

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gehnahouse/backend-gehna/internal/common"
)

var validate = validator.New()

// Handlers exposes back-office agency management.
type Handlers struct {
	Store *Store
	Log   zerolog.Logger
}

type agencyPayload struct {
	Name          string `json:"name" validate:"required,min=2,max=200"`
	ContactName   string `json:"contact_name" validate:"max=200"`
	ContactEmail  string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone  string `json:"contact_phone" validate:"max=32"`
	City          string `json:"city" validate:"max=120"`
	CommissionBps int32  `json:"commission_bps" validate:"gte=0,lte=10000"`
	IsActive      bool   `json:"is_active"`
}

func (p agencyPayload) toAgency() Agency {
	return Agency{
		Name:          strings.TrimSpace(p.Name),
		ContactName:   strings.TrimSpace(p.ContactName),
		ContactEmail:  strings.TrimSpace(p.ContactEmail),
		ContactPhone:  strings.TrimSpace(p.ContactPhone),
		City:          strings.TrimSpace(p.City),
		CommissionBps: p.CommissionBps,
		IsActive:      p.IsActive,
	}
}

// List handles GET /admin/agencies.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20, 100)
	agencies, total, err := h.Store.List(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		h.Log.Error().Err(err).Msg("list agencies failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not list agencies", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": agencies,
		"meta": map[string]any{"page": page, "per_page": perPage, "total": total},
	})
}

// Get handles GET /admin/agencies/{id}.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid agency id", nil)
		return
	}
	a, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrAgencyNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "agency not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("get agency failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load agency", nil)
		return
	}
	common.JSONData(w, http.StatusOK, a)
}

// Create handles POST /admin/agencies.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var payload agencyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid agency payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	created, err := h.Store.Create(r.Context(), payload.toAgency())
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			common.JSONError(w, http.StatusConflict, "DUPLICATE_NAME", "an agency with this name already exists", nil)
			return
		}
		h.Log.Error().Err(err).Msg("create agency failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not create agency", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, created)
}

// Update handles PUT /admin/agencies/{id}.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid agency id", nil)
		return
	}
	var payload agencyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid agency payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	a := payload.toAgency()
	a.ID = id
	updated, err := h.Store.Update(r.Context(), a)
	if err != nil {
		switch {
		case errors.Is(err, ErrAgencyNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "agency not found", nil)
		case errors.Is(err, ErrDuplicateName):
			common.JSONError(w, http.StatusConflict, "DUPLICATE_NAME", "an agency with this name already exists", nil)
		default:
			h.Log.Error().Err(err).Msg("update agency failed")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not update agency", nil)
		}
		return
	}
	common.JSONData(w, http.StatusOK, updated)
}

// Delete handles DELETE /admin/agencies/{id}.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid agency id", nil)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrAgencyNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "agency not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("delete agency failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not delete agency", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
