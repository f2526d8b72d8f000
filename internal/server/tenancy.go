package server

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/meridianclinic/meridian/modules/iam/domain/ports"
	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

const tenantOverrideHeader = "X-Tenant-ID"

// tenantResolver determines the candidate tenant for a request. Resolution is
// deterministic and side-effect-free: it only computes an identifier, in
// strict precedence order; membership is validated later by the enforcer.
//
//  1. Gateway-supplied override header (trusted proxies only).
//  2. Verified token claim: active_tenant, then home_tenant.
//  3. Subdomain of the request host.
//  4. Leading /t/{tenant} path segment.
type tenantResolver struct {
	tenants    ports.TenantStore
	baseDomain string
	trustProxy bool
}

func newTenantResolverFromEnv(tenants ports.TenantStore) *tenantResolver {
	return &tenantResolver{
		tenants:    tenants,
		baseDomain: strings.TrimSpace(os.Getenv("BASE_DOMAIN")),
		trustProxy: os.Getenv("TRUST_PROXY") == "1",
	}
}

// resolve returns "" when no signal yields a tenant; the enforcer decides
// whether that means TenantRequired or default-tenant fallback.
func (tr *tenantResolver) resolve(ctx context.Context, r *http.Request, claims types.Claims) (string, error) {
	if tr.trustProxy {
		if v := types.NormalizeTenantID(r.Header.Get(tenantOverrideHeader)); v != "" {
			return v, nil
		}
	}

	if v := types.NormalizeTenantID(claims.ActiveTenant); v != "" {
		return v, nil
	}
	if v := types.NormalizeTenantID(claims.HomeTenant); v != "" {
		return v, nil
	}

	if sub := subdomainOf(effectiveHost(r), tr.baseDomain); sub != "" {
		t, ok, err := tr.tenants.GetBySubdomain(ctx, sub)
		if err != nil {
			return "", err
		}
		if ok {
			return types.NormalizeTenantID(t.ID), nil
		}
	}

	if v := tenantFromPath(r.URL.Path); v != "" {
		return v, nil
	}
	return "", nil
}

// tenantFromPath recognizes /t/{tenant}/... as a structural hint.
func tenantFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, "/t/")
	if !ok {
		return ""
	}
	tenant, _, _ := strings.Cut(rest, "/")
	return types.NormalizeTenantID(tenant)
}
