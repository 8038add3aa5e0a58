package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Capability names a privileged action class guarded by a Policy.
type Capability string

// CapabilityAdmin grants access to the back-office surface.
const CapabilityAdmin Capability = "admin"

// Policy decides whether a request may exercise a capability. Admin access is
// modelled as a capability check so the shared-secret scheme can be swapped
// for proper role-based auth without touching the routes.
type Policy interface {
	Allow(r *http.Request, c Capability) bool
}

// DefaultAdminHeader carries the admin shared secret.
const DefaultAdminHeader = "X-Admin-Key"

// SharedSecretPolicy grants the admin capability to requests presenting the
// configured shared secret. Comparison is constant time.
type SharedSecretPolicy struct {
	Secret string
	Header string
}

// Allow implements Policy. An empty secret denies everything.
func (p SharedSecretPolicy) Allow(r *http.Request, c Capability) bool {
	if c != CapabilityAdmin || p.Secret == "" {
		return false
	}
	header := p.Header
	if header == "" {
		header = DefaultAdminHeader
	}
	presented := strings.TrimSpace(r.Header.Get(header))
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(p.Secret)) == 1
}
