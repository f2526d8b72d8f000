package types

import (
	"strings"
	"time"
)

// Tenant is an isolated customer organization. Tenant records are created by
// administrative operations and are read-only on the request path.
type Tenant struct {
	ID                string     `json:"id" yaml:"id"`
	Name              string     `json:"name" yaml:"name"`
	Subdomain         string     `json:"subdomain" yaml:"subdomain"`
	TrustDomain       string     `json:"trust_domain" yaml:"trust_domain"`
	IsActive          bool       `json:"is_active" yaml:"is_active"`
	SubscriptionStart *time.Time `json:"subscription_start,omitempty" yaml:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time `json:"subscription_end,omitempty" yaml:"subscription_end,omitempty"`
}

// SubscribedAt reports whether the tenant's subscription window covers now.
// A nil bound is open-ended.
func (t Tenant) SubscribedAt(now time.Time) bool {
	if t.SubscriptionStart != nil && now.Before(*t.SubscriptionStart) {
		return false
	}
	if t.SubscriptionEnd != nil && now.After(*t.SubscriptionEnd) {
		return false
	}
	return true
}

func NormalizeTenantID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
