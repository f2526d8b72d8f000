package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the authorization core. Boundary code maps all of them
// to generic unauthenticated/unauthorized responses; the specific reason is
// logged, never echoed to the caller.
var (
	// ErrTrustDomainUnavailable means no verifier could be established for
	// the token's issuer. The request is unauthenticated; there is no
	// fallback to a default trust domain.
	ErrTrustDomainUnavailable = errors.New("iam: trust domain unavailable")

	// ErrTenantRequired means no tenant could be resolved for a
	// tenant-mandatory operation.
	ErrTenantRequired = errors.New("iam: tenant required")

	// ErrAccessDenied means the principal is authenticated but lacks an
	// active grant or the required role.
	ErrAccessDenied = errors.New("iam: access denied")

	// ErrTenantNotFound means the resolved tenant identifier does not name
	// an existing, active tenant.
	ErrTenantNotFound = errors.New("iam: tenant not found")
)

// TenantMismatchFault is raised (as a panic value) by the isolation guard
// when a loaded record's stored tenant disagrees with the active tenant
// context. It is an integrity fault, not a recoverable business error: it
// means either a resolver bug or a cross-tenant access that slipped past the
// query-level filter. Only the request boundary recovers it.
type TenantMismatchFault struct {
	Resource     string
	WantTenantID string
	GotTenantID  string
}

func (f *TenantMismatchFault) Error() string {
	return fmt.Sprintf("iam: tenant mismatch on %s: context=%s stored=%s", f.Resource, f.WantTenantID, f.GotTenantID)
}

// IsolationFault marks the value for boundary recover logic that must not
// treat it as an ordinary handler panic.
func (f *TenantMismatchFault) IsolationFault() {}
