package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianclinic/meridian/modules/iam/domain/ports"
	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

type dbQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type TenantPGStore struct {
	db dbQuerier
}

func NewTenantPGStore(pool *pgxpool.Pool) *TenantPGStore {
	return &TenantPGStore{db: pool}
}

var _ ports.TenantStore = (*TenantPGStore)(nil)

const tenantColumns = `id::text, name, subdomain, trust_domain, is_active, subscription_start, subscription_end`

func (s *TenantPGStore) GetByID(ctx context.Context, tenantID string) (types.Tenant, bool, error) {
	tenantID = types.NormalizeTenantID(tenantID)
	if tenantID == "" {
		return types.Tenant{}, false, nil
	}
	row := s.db.QueryRow(ctx, `
SELECT `+tenantColumns+`
FROM iam.tenants
WHERE id = $1::uuid
`, tenantID)
	return scanTenant(row)
}

func (s *TenantPGStore) GetBySubdomain(ctx context.Context, subdomain string) (types.Tenant, bool, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if subdomain == "" {
		return types.Tenant{}, false, nil
	}
	row := s.db.QueryRow(ctx, `
SELECT `+tenantColumns+`
FROM iam.tenants
WHERE subdomain = $1
`, subdomain)
	return scanTenant(row)
}

func (s *TenantPGStore) List(ctx context.Context) ([]types.Tenant, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+tenantColumns+`
FROM iam.tenants
ORDER BY subdomain
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Tenant
	for rows.Next() {
		var t types.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Subdomain, &t.TrustDomain, &t.IsActive, &t.SubscriptionStart, &t.SubscriptionEnd); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *TenantPGStore) Create(ctx context.Context, t types.Tenant) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO iam.tenants (id, name, subdomain, trust_domain, is_active, subscription_start, subscription_end)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
`, t.ID, t.Name, strings.ToLower(strings.TrimSpace(t.Subdomain)), t.TrustDomain, t.IsActive, t.SubscriptionStart, t.SubscriptionEnd)
	return err
}

// KnownIssuer satisfies trust.IssuerDirectory: an issuer is known iff some
// active tenant declares it as its trust domain.
func (s *TenantPGStore) KnownIssuer(ctx context.Context, issuer string) (bool, error) {
	var one int
	err := s.db.QueryRow(ctx, `
SELECT 1
FROM iam.tenants
WHERE trust_domain = $1
  AND is_active = true
LIMIT 1
`, issuer).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func scanTenant(row pgx.Row) (types.Tenant, bool, error) {
	var t types.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.TrustDomain, &t.IsActive, &t.SubscriptionStart, &t.SubscriptionEnd)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Tenant{}, false, nil
		}
		return types.Tenant{}, false, err
	}
	return t, true, nil
}
