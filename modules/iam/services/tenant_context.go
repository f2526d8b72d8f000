package services

import (
	"context"

	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

// The tenant/principal/capability context is strictly request-scoped: it is
// carried on the request's context.Context and evaporates when the request
// returns. There is no package-level slot to clear, so a reused goroutine can
// never observe another request's tenant.

type tenantCtxKey struct{}
type principalCtxKey struct{}
type capabilitiesCtxKey struct{}

func WithTenant(ctx context.Context, t types.Tenant) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, t)
}

func CurrentTenant(ctx context.Context) (types.Tenant, bool) {
	t, ok := ctx.Value(tenantCtxKey{}).(types.Tenant)
	return t, ok
}

func WithPrincipal(ctx context.Context, p types.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

func CurrentPrincipal(ctx context.Context) (types.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(types.Principal)
	return p, ok
}

func WithCapabilities(ctx context.Context, c types.Capabilities) context.Context {
	return context.WithValue(ctx, capabilitiesCtxKey{}, c)
}

func CurrentCapabilities(ctx context.Context) (types.Capabilities, bool) {
	c, ok := ctx.Value(capabilitiesCtxKey{}).(types.Capabilities)
	return c, ok
}
