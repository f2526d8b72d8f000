package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meridianclinic/meridian/modules/iam/domain/ports"
	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

// DecisionState is the enforcer's position in the per-operation state
// machine. Every operation walks Unauthenticated → TokenVerified →
// TenantResolved → MembershipChecked → RoleChecked → Authorized, or drops to
// Denied from any state.
type DecisionState string

const (
	StateUnauthenticated   DecisionState = "unauthenticated"
	StateTokenVerified     DecisionState = "token_verified"
	StateTenantResolved    DecisionState = "tenant_resolved"
	StateMembershipChecked DecisionState = "membership_checked"
	StateRoleChecked       DecisionState = "role_checked"
	StateAuthorized        DecisionState = "authorized"
	StateDenied            DecisionState = "denied"
)

// Operation describes the target of an authorization decision.
type Operation struct {
	Resource string
	Action   string
	// TenantRequired operations deny with ErrTenantRequired when no tenant
	// resolves; others fall back to the configured default tenant.
	TenantRequired bool
	// Bypassable operations may skip tenant resolution and membership for a
	// super-admin capability. Token verification is never skipped.
	Bypassable bool
}

// Decision is the outcome handed to business logic: the resolved
// (tenant, principal, capabilities) triple, or a denial with an internal
// reason that is logged but never echoed to the caller.
type Decision struct {
	State        DecisionState
	DeniedFrom   DecisionState
	Tenant       types.Tenant
	Principal    types.Principal
	Capabilities types.Capabilities
	Reason       error
	Bypassed     bool
}

func (d Decision) Allowed() bool { return d.State == StateAuthorized }

// RoleGate answers whether the derived capability set permits an action on a
// resource within the tenant.
type RoleGate interface {
	Allow(caps types.Capabilities, tenantID string, resource string, action string) (bool, error)
}

// AuthorizationEnforcer composes tenant lookup, membership validation,
// authority derivation, and the operation role gate into one allow/deny
// checkpoint.
type AuthorizationEnforcer struct {
	tenants        ports.TenantStore
	validator      *AccessValidator
	deriver        *AuthorityDeriver
	gate           RoleGate
	audit          ports.AuditSink
	defaultTenant  string
	superAdminRole string
	now            func() time.Time
	log            *zap.Logger
}

type EnforcerConfig struct {
	// DefaultTenant is used only for tenant-optional operations with no
	// resolvable tenant signal.
	DefaultTenant string
	// SuperAdminRole is the unprefixed global capability allowed to bypass
	// tenant resolution and membership on bypassable operations.
	SuperAdminRole string
}

func NewAuthorizationEnforcer(
	tenants ports.TenantStore,
	validator *AccessValidator,
	deriver *AuthorityDeriver,
	gate RoleGate,
	audit ports.AuditSink,
	cfg EnforcerConfig,
	log *zap.Logger,
) *AuthorizationEnforcer {
	if cfg.SuperAdminRole == "" {
		cfg.SuperAdminRole = "super_admin"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthorizationEnforcer{
		tenants:        tenants,
		validator:      validator,
		deriver:        deriver,
		gate:           gate,
		audit:          audit,
		defaultTenant:  cfg.DefaultTenant,
		superAdminRole: cfg.SuperAdminRole,
		now:            time.Now,
		log:            log,
	}
}

// Authorize runs the state machine for one operation. claims must already be
// verified by the issuer's verifier; candidateTenantID is the resolver's
// output ("" when no signal resolved).
func (e *AuthorizationEnforcer) Authorize(ctx context.Context, claims types.Claims, candidateTenantID string, op Operation) Decision {
	if claims.Subject == "" {
		return e.deny(ctx, StateUnauthenticated, claims, candidateTenantID, op, types.ErrAccessDenied)
	}
	principal := types.Principal{ID: claims.Subject, Email: claims.Email}

	// State: TokenVerified.
	caps := e.deriver.Derive(claims, candidateTenantID)
	if op.Bypassable && caps.HasGlobal(e.superAdminRole) {
		return Decision{
			State:        StateAuthorized,
			Principal:    principal,
			Capabilities: caps,
			Bypassed:     true,
		}
	}

	tenantID := types.NormalizeTenantID(candidateTenantID)
	if tenantID == "" {
		if op.TenantRequired {
			return e.deny(ctx, StateTokenVerified, claims, "", op, types.ErrTenantRequired)
		}
		tenantID = types.NormalizeTenantID(e.defaultTenant)
		if tenantID == "" {
			return e.deny(ctx, StateTokenVerified, claims, "", op, types.ErrTenantRequired)
		}
		caps = e.deriver.Derive(claims, tenantID)
	}

	tenant, ok, err := e.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return e.deny(ctx, StateTokenVerified, claims, tenantID, op, err)
	}
	if !ok || !tenant.IsActive || !tenant.SubscribedAt(e.now()) {
		return e.deny(ctx, StateTokenVerified, claims, tenantID, op, types.ErrTenantNotFound)
	}

	// State: TenantResolved.
	hasAccess, err := e.validator.HasAccess(ctx, principal.ID, tenantID)
	if err != nil {
		return e.deny(ctx, StateTenantResolved, claims, tenantID, op, err)
	}
	if !hasAccess {
		return e.deny(ctx, StateTenantResolved, claims, tenantID, op, types.ErrAccessDenied)
	}

	// State: MembershipChecked.
	allowed, err := e.gate.Allow(caps, tenantID, op.Resource, op.Action)
	if err != nil {
		return e.deny(ctx, StateMembershipChecked, claims, tenantID, op, err)
	}
	if !allowed {
		return e.deny(ctx, StateMembershipChecked, claims, tenantID, op, types.ErrAccessDenied)
	}

	// States: RoleChecked → Authorized.
	return Decision{
		State:        StateAuthorized,
		Tenant:       tenant,
		Principal:    principal,
		Capabilities: caps,
	}
}

func (e *AuthorizationEnforcer) deny(ctx context.Context, from DecisionState, claims types.Claims, tenantID string, op Operation, reason error) Decision {
	rec := ports.AuditRecord{
		At:          e.now(),
		PrincipalID: claims.Subject,
		TenantID:    tenantID,
		Resource:    op.Resource,
		Action:      op.Action,
		Decision:    string(StateDenied),
		Reason:      reason.Error(),
	}
	if e.audit != nil {
		if err := e.audit.Emit(ctx, rec); err != nil {
			// Audit is best-effort; a sink failure must not itself deny or
			// allow anything, but operations needs to see it.
			e.log.Error("audit emission failed",
				zap.String("principal", rec.PrincipalID),
				zap.String("tenant", rec.TenantID),
				zap.Error(err),
			)
		}
	}
	return Decision{State: StateDenied, DeniedFrom: from, Reason: reason}
}
