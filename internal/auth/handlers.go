package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gehnahouse/backend-gehna/internal/common"
)

var validate = validator.New()

// Handlers exposes registration, login and the current-account endpoint.
type Handlers struct {
	Svc *Service
	Log zerolog.Logger
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// Register handles POST /auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid registration payload", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	c, err := h.Svc.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			common.JSONError(w, http.StatusConflict, "EMAIL_TAKEN", "email already registered", nil)
			return
		}
		h.Log.Error().Err(err).Msg("registration failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not register", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, c)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid login payload", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	c, token, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			common.JSONError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "email or password is incorrect", nil)
			return
		}
		h.Log.Error().Err(err).Msg("login failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not log in", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"customer": c, "access_token": token})
}

// Me handles GET /auth/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	raw, ok := common.CustomerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in first", nil)
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in first", nil)
		return
	}
	c, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "account not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("load account failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load account", nil)
		return
	}
	common.JSONData(w, http.StatusOK, c)
}
