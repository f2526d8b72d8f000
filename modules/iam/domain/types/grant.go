package types

import "strings"

// AccessGrant authorizes a principal to operate within one tenant. The
// (PrincipalID, TenantID) pair is unique; at most one grant per principal has
// IsPrimary set. Revocation deactivates the grant, it is never hard-deleted.
type AccessGrant struct {
	PrincipalID string   `json:"principal_id"`
	TenantID    string   `json:"tenant_id"`
	Roles       []string `json:"roles"`
	IsPrimary   bool     `json:"is_primary"`
	IsActive    bool     `json:"is_active"`
}

func (g AccessGrant) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range g.Roles {
		if strings.ToLower(strings.TrimSpace(r)) == role {
			return true
		}
	}
	return false
}

// Principal is the authenticated subject as known to this backend. Identity
// lifecycle (registration, passwords) lives in the external IdP; only the
// subject identifier and verified e-mail reach this core.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
