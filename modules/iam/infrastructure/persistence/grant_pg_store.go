package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianclinic/meridian/modules/iam/domain/ports"
	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

type GrantPGStore struct {
	db dbQuerier
}

func NewGrantPGStore(pool *pgxpool.Pool) *GrantPGStore {
	return &GrantPGStore{db: pool}
}

var _ ports.AccessGrantStore = (*GrantPGStore)(nil)

func (s *GrantPGStore) GetActive(ctx context.Context, principalID string, tenantID string) (types.AccessGrant, bool, error) {
	var g types.AccessGrant
	err := s.db.QueryRow(ctx, `
SELECT principal_id, tenant_id::text, roles, is_primary, is_active
FROM iam.access_grants
WHERE principal_id = $1
  AND tenant_id = $2::uuid
  AND is_active = true
`, principalID, types.NormalizeTenantID(tenantID)).Scan(&g.PrincipalID, &g.TenantID, &g.Roles, &g.IsPrimary, &g.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.AccessGrant{}, false, nil
		}
		return types.AccessGrant{}, false, err
	}
	return g, true, nil
}

func (s *GrantPGStore) Create(ctx context.Context, g types.AccessGrant) error {
	if g.IsPrimary {
		// At most one primary grant per principal: demote any existing one
		// in the same statement batch.
		if _, err := s.db.Exec(ctx, `
UPDATE iam.access_grants
SET is_primary = false
WHERE principal_id = $1
  AND is_primary = true
`, g.PrincipalID); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO iam.access_grants (principal_id, tenant_id, roles, is_primary, is_active)
VALUES ($1, $2::uuid, $3, $4, $5)
ON CONFLICT (principal_id, tenant_id)
DO UPDATE SET roles = EXCLUDED.roles, is_primary = EXCLUDED.is_primary, is_active = EXCLUDED.is_active
`, g.PrincipalID, types.NormalizeTenantID(g.TenantID), g.Roles, g.IsPrimary, g.IsActive)
	return err
}

func (s *GrantPGStore) Deactivate(ctx context.Context, principalID string, tenantID string) error {
	_, err := s.db.Exec(ctx, `
UPDATE iam.access_grants
SET is_active = false
WHERE principal_id = $1
  AND tenant_id = $2::uuid
`, principalID, types.NormalizeTenantID(tenantID))
	return err
}
