package services

import (
	"context"

	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

// IsolationGuard scopes every data access to the active tenant context.
// Stores use TenantID to build the implicit tenant filter on each query and
// Verify as the post-load/post-write check on rows that came back. Verify is
// deliberately redundant with the query filter: if a filter is ever forgotten
// on one query path, the mismatch still trips here.
//
// A mismatch is an integrity fault, not a business error: Verify panics with
// a *types.TenantMismatchFault, which only the request-boundary recover
// handles (logged as a security fault, returned as an opaque 500).
type IsolationGuard struct{}

func NewIsolationGuard() IsolationGuard { return IsolationGuard{} }

// TenantID returns the active tenant for the request, or "" when no tenant
// context is set (e.g. super-admin provisioning paths, which must then scope
// explicitly).
func (IsolationGuard) TenantID(ctx context.Context) string {
	t, ok := CurrentTenant(ctx)
	if !ok {
		return ""
	}
	return t.ID
}

// RequireTenantID is TenantID for code paths where operating without a
// tenant context would itself be a fault.
func (g IsolationGuard) RequireTenantID(ctx context.Context) string {
	id := g.TenantID(ctx)
	if id == "" {
		panic(&types.TenantMismatchFault{Resource: "tenant-context", WantTenantID: "", GotTenantID: ""})
	}
	return id
}

// Verify compares a record's stored tenant against the active context.
func (g IsolationGuard) Verify(ctx context.Context, resource string, storedTenantID string) {
	want := g.TenantID(ctx)
	if want == "" || types.NormalizeTenantID(storedTenantID) != types.NormalizeTenantID(want) {
		panic(&types.TenantMismatchFault{
			Resource:     resource,
			WantTenantID: want,
			GotTenantID:  storedTenantID,
		})
	}
}
