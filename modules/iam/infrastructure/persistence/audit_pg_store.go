package persistence

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianclinic/meridian/modules/iam/domain/ports"
	"github.com/meridianclinic/meridian/pkg/uuidv7"
)

// AuditPGStore persists denied-decision audit records. Emission failures are
// the caller's problem to log; this sink never blocks an authorization
// outcome.
type AuditPGStore struct {
	db dbQuerier
}

func NewAuditPGStore(pool *pgxpool.Pool) *AuditPGStore {
	return &AuditPGStore{db: pool}
}

var _ ports.AuditSink = (*AuditPGStore)(nil)

func (s *AuditPGStore) Emit(ctx context.Context, rec ports.AuditRecord) error {
	id, err := uuidv7.NewString()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
INSERT INTO iam.authz_audit (id, occurred_at, principal_id, tenant_id, resource, action, decision, reason)
VALUES ($1::uuid, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8)
`, id, rec.At, rec.PrincipalID, rec.TenantID, rec.Resource, rec.Action, rec.Decision, rec.Reason)
	return err
}
