package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/meridianclinic/meridian/internal/routing"
	"github.com/meridianclinic/meridian/modules/iam/domain/types"
	"github.com/meridianclinic/meridian/modules/iam/infrastructure/trust"
	"github.com/meridianclinic/meridian/modules/iam/services"
	"github.com/meridianclinic/meridian/pkg/authz"
)

func loadAuthorizer() (*authz.Authorizer, error) {
	modelPath := os.Getenv("AUTHZ_MODEL_PATH")
	if modelPath == "" {
		p, err := defaultAuthzConfigPath("config/access/model.conf")
		if err != nil {
			return nil, err
		}
		modelPath = p
	}

	policyPath := os.Getenv("AUTHZ_POLICY_PATH")
	if policyPath == "" {
		p, err := defaultAuthzConfigPath("config/access/policy.csv")
		if err != nil {
			return nil, err
		}
		policyPath = p
	}

	mode, err := authz.ModeFromEnv()
	if err != nil {
		return nil, err
	}

	return authz.NewAuthorizer(modelPath, policyPath, mode)
}

func defaultAuthzConfigPath(rel string) (string, error) {
	path := rel
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: authz config not found: " + rel)
}

// casbinRoleGate adapts the casbin authorizer to the enforcer's RoleGate.
// Operations without a registered resource carry no role gate; membership and
// tenant checks still apply.
type casbinRoleGate struct {
	a *authz.Authorizer
}

func (g casbinRoleGate) Allow(caps types.Capabilities, tenantID string, resource string, action string) (bool, error) {
	if resource == "" {
		return true, nil
	}
	subjects := make([]string, 0, len(caps.Roles)+len(caps.Global)+1)
	for _, r := range caps.Roles {
		subjects = append(subjects, authz.SubjectFromRole(r))
	}
	for _, gl := range caps.Global {
		subjects = append(subjects, authz.SubjectFromGlobal(gl))
	}
	if len(subjects) == 0 {
		subjects = append(subjects, authz.SubjectFromRole(""))
	}
	allowed, enforced, err := g.a.AuthorizeAny(subjects, authz.DomainFromTenantID(tenantID), resource, action)
	if err != nil {
		return false, err
	}
	if !enforced {
		// Shadow/disabled mode: observed, not enforced.
		return true, nil
	}
	return allowed, nil
}

// withAuthorization is the request-boundary checkpoint: verify the bearer
// credential against its trust domain, resolve the tenant, run the enforcer
// state machine, and populate the request-scoped tenant/principal/capability
// context for downstream handlers. The context dies with the request, so no
// explicit clearing is needed on any exit path.
func withAuthorization(
	classifier *routing.Classifier,
	resolver *trust.Resolver,
	tenantRes *tenantResolver,
	enforcer *services.AuthorizationEnforcer,
	log *zap.Logger,
	next http.Handler,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		rc := routing.RouteClassUI
		if classifier != nil {
			rc = classifier.Classify(path)
		}

		// Integrity faults from the isolation guard surface as panics; they
		// are recovered here, logged as security faults, and returned as an
		// opaque 500.
		defer func() {
			if rec := recover(); rec != nil {
				fault, ok := rec.(*types.TenantMismatchFault)
				if !ok {
					panic(rec)
				}
				log.Error("tenant isolation fault",
					zap.String("resource", fault.Resource),
					zap.String("context_tenant", fault.WantTenantID),
					zap.String("stored_tenant", fault.GotTenantID),
					zap.String("path", path),
				)
				routing.WriteError(w, r, rc, http.StatusInternalServerError, "internal_error", "internal error")
			}
		}()

		if path == "/health" || path == "/healthz" || pathHasPrefixSegment(path, "/assets") {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := bearerToken(r)
		if !ok {
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}

		issuer, err := unverifiedIssuer(raw)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		verifier, err := resolver.Resolve(r.Context(), issuer)
		if err != nil {
			// TrustDomainUnavailable: unauthenticated, never a fallback
			// domain. Reason is logged, not echoed.
			log.Warn("trust domain unavailable", zap.String("issuer", issuer), zap.Error(err))
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		claims, err := verifier.Verify(r.Context(), raw)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}

		tenantID, err := tenantRes.resolve(r.Context(), r, claims)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "tenant_resolve_error", "tenant resolve error")
			return
		}

		op := operationForRoute(classifier, r.Method, path)
		decision := enforcer.Authorize(r.Context(), claims, tenantID, op)
		if !decision.Allowed() {
			status := http.StatusForbidden
			if errors.Is(decision.Reason, types.ErrTenantRequired) {
				status = http.StatusBadRequest
			}
			routing.WriteError(w, r, rc, status, "not_authorized", "not authorized")
			return
		}

		ctx := r.Context()
		if decision.Tenant.ID != "" {
			ctx = services.WithTenant(ctx, decision.Tenant)
		}
		ctx = services.WithPrincipal(ctx, decision.Principal)
		ctx = services.WithCapabilities(ctx, decision.Capabilities)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// unverifiedIssuer reads iss before signature verification, only to select
// the trust domain whose keys then verify everything.
func unverifiedIssuer(raw string) (string, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, mc); err != nil {
		return "", err
	}
	iss, _ := mc["iss"].(string)
	if iss == "" {
		return "", errors.New("server: token missing issuer")
	}
	return iss, nil
}

func pathHasPrefixSegment(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return len(path) > len(prefix) && path[:len(prefix)+1] == prefix+"/"
}
