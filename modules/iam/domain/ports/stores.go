package ports

import (
	"context"

	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

type TenantStore interface {
	GetByID(ctx context.Context, tenantID string) (types.Tenant, bool, error)
	GetBySubdomain(ctx context.Context, subdomain string) (types.Tenant, bool, error)
	List(ctx context.Context) ([]types.Tenant, error)
	Create(ctx context.Context, t types.Tenant) error
}

// AccessGrantStore is the sole source of truth for tenant membership.
type AccessGrantStore interface {
	GetActive(ctx context.Context, principalID string, tenantID string) (types.AccessGrant, bool, error)
	Create(ctx context.Context, g types.AccessGrant) error
	// Deactivate marks the grant inactive. It never deletes the row.
	Deactivate(ctx context.Context, principalID string, tenantID string) error
}
