package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/meridianclinic/meridian/internal/routing"
	"github.com/meridianclinic/meridian/modules/iam/domain/ports"
	"github.com/meridianclinic/meridian/modules/iam/domain/types"
	"github.com/meridianclinic/meridian/modules/iam/services"
)

type tenantAPIRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Subdomain   string `json:"subdomain"`
	TrustDomain string `json:"trust_domain"`
}

// Tenant provisioning is a platform operation: bypassable by super-admin and
// not scoped to any single tenant.
func handleTenantsAPI(w http.ResponseWriter, r *http.Request, tenants ports.TenantStore) {
	switch r.Method {
	case http.MethodGet:
		list, err := tenants.List(r.Context())
		if err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "list_failed", "list failed")
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{"tenants": list})
		return
	case http.MethodPost:
		var req tenantAPIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
			return
		}
		t := types.Tenant{
			ID:          types.NormalizeTenantID(req.ID),
			Name:        strings.TrimSpace(req.Name),
			Subdomain:   strings.TrimSpace(strings.ToLower(req.Subdomain)),
			TrustDomain: strings.TrimSpace(req.TrustDomain),
			IsActive:    true,
		}
		if t.ID == "" || t.Subdomain == "" || t.TrustDomain == "" {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "invalid_tenant", "id, subdomain and trust_domain required")
			return
		}
		if err := tenants.Create(r.Context(), t); err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "create_failed", "create failed")
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(t)
		return
	default:
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
}

type grantAPIRequest struct {
	PrincipalID string   `json:"principal_id"`
	TenantID    string   `json:"tenant_id"`
	Roles       []string `json:"roles"`
	IsPrimary   bool     `json:"is_primary"`
}

func handleGrantsAPI(w http.ResponseWriter, r *http.Request, tenants ports.TenantStore, grants ports.AccessGrantStore) {
	if r.Method != http.MethodPost {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var req grantAPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
		return
	}
	principalID := strings.TrimSpace(req.PrincipalID)
	tenantID := types.NormalizeTenantID(req.TenantID)
	if principalID == "" || tenantID == "" {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "invalid_grant", "principal_id and tenant_id required")
		return
	}
	if _, ok, err := tenants.GetByID(r.Context(), tenantID); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_lookup_failed", "tenant lookup failed")
		return
	} else if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "unknown_tenant", "unknown tenant")
		return
	}
	g := types.AccessGrant{
		PrincipalID: principalID,
		TenantID:    tenantID,
		Roles:       normalizeRoles(req.Roles),
		IsPrimary:   req.IsPrimary,
		IsActive:    true,
	}
	if err := grants.Create(r.Context(), g); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "create_failed", "create failed")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(g)
}

type grantRevokeAPIRequest struct {
	PrincipalID string `json:"principal_id"`
	TenantID    string `json:"tenant_id"`
}

// Revocation deactivates the grant and evicts its cached access decision in
// the same operation. Success is reported only after both took effect, so a
// revoked principal cannot ride the cache past the revoke response.
func handleGrantsRevokeAPI(w http.ResponseWriter, r *http.Request, grants ports.AccessGrantStore, validator *services.AccessValidator) {
	if r.Method != http.MethodPost {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	var req grantRevokeAPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
		return
	}
	principalID := strings.TrimSpace(req.PrincipalID)
	tenantID := types.NormalizeTenantID(req.TenantID)
	if principalID == "" || tenantID == "" {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "invalid_grant", "principal_id and tenant_id required")
		return
	}
	if err := grants.Deactivate(r.Context(), principalID, tenantID); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "revoke_failed", "revoke failed")
		return
	}
	validator.Evict(r.Context(), principalID, tenantID)
	w.WriteHeader(http.StatusNoContent)
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(strings.ToLower(r))
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
