package types

import "strings"

// Capabilities is the tenant-scoped permission set derived from verified
// claims. Entries are role names valid only within TenantID, plus global
// capabilities that carried the explicit global marker prefix.
type Capabilities struct {
	TenantID string
	Roles    []string
	Global   []string
}

func (c Capabilities) IsEmpty() bool {
	return len(c.Roles) == 0 && len(c.Global) == 0
}

func (c Capabilities) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range c.Roles {
		if strings.ToLower(r) == role {
			return true
		}
	}
	return false
}

// HasGlobal matches a global capability by its unprefixed name.
func (c Capabilities) HasGlobal(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, g := range c.Global {
		if strings.ToLower(g) == name {
			return true
		}
	}
	return false
}
