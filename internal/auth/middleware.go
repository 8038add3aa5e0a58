package auth

import (
	"net/http"
	"strings"

	"github.com/gehnahouse/backend-gehna/internal/common"
)

// RequireCustomer authenticates the bearer token and stores the customer id on
// the request context.
func RequireCustomer(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
				return
			}
			sub, err := svc.ParseAccessToken(raw)
			if err != nil {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired access token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(common.WithCustomerID(r.Context(), sub)))
		})
	}
}

// RequireAdmin guards back-office routes behind the capability policy.
func RequireAdmin(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !policy.Allow(r, CapabilityAdmin) {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "admin access required", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(common.WithAdmin(r.Context())))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
