package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSharedSecretPolicy(t *testing.T) {
	policy := SharedSecretPolicy{Secret: "topaz-vault-key"}

	r := httptest.NewRequest("GET", "/admin/coupons", nil)
	require.False(t, policy.Allow(r, CapabilityAdmin), "missing header must be denied")

	r.Header.Set(DefaultAdminHeader, "wrong")
	require.False(t, policy.Allow(r, CapabilityAdmin))

	r.Header.Set(DefaultAdminHeader, "topaz-vault-key")
	require.True(t, policy.Allow(r, CapabilityAdmin))
}

func TestSharedSecretPolicyEmptySecretDeniesAll(t *testing.T) {
	policy := SharedSecretPolicy{}
	r := httptest.NewRequest("GET", "/admin/coupons", nil)
	r.Header.Set(DefaultAdminHeader, "")
	require.False(t, policy.Allow(r, CapabilityAdmin))
}

func TestSharedSecretPolicyCustomHeader(t *testing.T) {
	policy := SharedSecretPolicy{Secret: "s3cret", Header: "X-Backoffice-Token"}
	r := httptest.NewRequest("GET", "/admin/orders", nil)
	r.Header.Set("X-Backoffice-Token", "s3cret")
	require.True(t, policy.Allow(r, CapabilityAdmin))
	require.False(t, policy.Allow(r, Capability("other")))
}
