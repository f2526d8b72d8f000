package services

import (
	"strings"

	"go.uber.org/zap"

	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

// DefaultGlobalRolePrefix marks realm-wide role values that are allowed to
// survive tenant filtering.
const DefaultGlobalRolePrefix = "global:"

// AuthorityDeriver converts verified claims into a capability set scoped to
// exactly one tenant. Realm-wide roles are discarded unless they carry the
// global marker prefix; tenant roles are taken only from the tenant_roles
// entry for the resolved tenant. A role granted in tenant A therefore never
// becomes exercisable in tenant B's context.
type AuthorityDeriver struct {
	globalPrefix string
	log          *zap.Logger
}

func NewAuthorityDeriver(globalPrefix string, log *zap.Logger) *AuthorityDeriver {
	globalPrefix = strings.TrimSpace(globalPrefix)
	if globalPrefix == "" {
		globalPrefix = DefaultGlobalRolePrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthorityDeriver{globalPrefix: globalPrefix, log: log}
}

func (d *AuthorityDeriver) Derive(claims types.Claims, tenantID string) types.Capabilities {
	tenantID = types.NormalizeTenantID(tenantID)
	caps := types.Capabilities{TenantID: tenantID}

	for _, r := range claims.RealmRoles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if name, ok := strings.CutPrefix(r, d.globalPrefix); ok && name != "" {
			caps.Global = append(caps.Global, name)
		}
		// All other realm-wide values are not tenant-scoped; dropped.
	}

	if claims.TenantRoles.Malformed {
		d.log.Warn("tenant role claim malformed, deriving no tenant roles",
			zap.String("principal", claims.Subject),
			zap.String("tenant", tenantID),
		)
	}
	for _, r := range claims.TenantRoles.RolesFor(tenantID) {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		caps.Roles = append(caps.Roles, r)
	}

	if caps.IsEmpty() {
		// Likely misconfiguration, but not fatal here: operation-level role
		// gates will deny anything this principal attempts.
		d.log.Warn("derived empty capability set",
			zap.String("principal", claims.Subject),
			zap.String("tenant", tenantID),
		)
	}
	return caps
}
