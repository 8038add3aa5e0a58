package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gehnahouse/backend-gehna/internal/common"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewService(nil, "unit-test-secret", time.Hour)
	id := uuid.New()

	token, err := svc.signAccessToken(id)
	require.NoError(t, err)

	sub, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, id.String(), sub)
}

func TestParseAccessTokenRejectsWrongKey(t *testing.T) {
	svc := NewService(nil, "unit-test-secret", time.Hour)
	token, err := svc.signAccessToken(uuid.New())
	require.NoError(t, err)

	other := NewService(nil, "different-secret", time.Hour)
	_, err = other.ParseAccessToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	svc := NewService(nil, "unit-test-secret", time.Hour)
	_, err := svc.ParseAccessToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireCustomerMiddleware(t *testing.T) {
	svc := NewService(nil, "unit-test-secret", time.Hour)
	id := uuid.New()
	token, err := svc.signAccessToken(id)
	require.NoError(t, err)

	var seen string
	handler := RequireCustomer(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.CustomerID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("GET", "/orders", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, id.String(), seen)

	// No token.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/orders", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Malformed scheme.
	r = httptest.NewRequest("GET", "/orders", nil)
	r.Header.Set("Authorization", "Token "+token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdminMiddleware(t *testing.T) {
	policy := SharedSecretPolicy{Secret: "vault-key"}
	var admin bool
	handler := RequireAdmin(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin = common.IsAdmin(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("GET", "/admin/orders", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusForbidden, w.Code)

	r.Header.Set(DefaultAdminHeader, "vault-key")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, admin)
}
