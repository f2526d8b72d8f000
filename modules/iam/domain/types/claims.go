package types

import (
	"encoding/json"
	"strings"
)

// Claims is the verified content of a bearer token that this core consumes.
// TenantRoles is decoded exactly once at the parsing boundary; callers never
// see the raw claim value again.
type Claims struct {
	Subject      string
	Issuer       string
	Email        string
	ActiveTenant string
	HomeTenant   string
	RealmRoles   []string
	TenantRoles  TenantRoleClaim
}

// TenantRoleClaim is the decoded tenant_roles claim: a mapping from tenant id
// to role list. The wire form is either a native JSON object or a legacy
// JSON-encoded string of the same object; both decode into this type.
// Malformed indicates the claim was present but unusable — the decode
// degrades to "no roles", never to "all roles".
type TenantRoleClaim struct {
	Roles     map[string][]string
	Malformed bool
}

// DecodeTenantRoleClaim accepts the raw claim value as produced by a JSON
// token decoder: map[string]any for the native form, string for the legacy
// serialized form, nil when absent.
func DecodeTenantRoleClaim(raw any) TenantRoleClaim {
	switch v := raw.(type) {
	case nil:
		return TenantRoleClaim{}
	case map[string]any:
		return tenantRolesFromMap(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return TenantRoleClaim{}
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return TenantRoleClaim{Malformed: true}
		}
		return tenantRolesFromMap(m)
	default:
		return TenantRoleClaim{Malformed: true}
	}
}

func tenantRolesFromMap(m map[string]any) TenantRoleClaim {
	out := make(map[string][]string, len(m))
	malformed := false
	for tenantID, v := range m {
		tenantID = NormalizeTenantID(tenantID)
		if tenantID == "" {
			continue
		}
		roles, ok := rolesFromAny(v)
		if !ok {
			malformed = true
			continue
		}
		out[tenantID] = roles
	}
	if len(out) == 0 && !malformed {
		return TenantRoleClaim{}
	}
	return TenantRoleClaim{Roles: out, Malformed: malformed}
}

func rolesFromAny(v any) ([]string, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	roles := make([]string, 0, len(list))
	for _, e := range list {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		roles = append(roles, s)
	}
	return roles, true
}

// RolesFor returns the roles scoped to tenantID, never roles of any other
// tenant.
func (c TenantRoleClaim) RolesFor(tenantID string) []string {
	if c.Roles == nil {
		return nil
	}
	return c.Roles[NormalizeTenantID(tenantID)]
}
