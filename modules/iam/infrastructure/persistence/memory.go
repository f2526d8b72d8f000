package persistence

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/meridianclinic/meridian/modules/iam/domain/ports"
	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

// Memory stores back tests and single-node development runs.

type MemoryTenantStore struct {
	mu   sync.Mutex
	byID map[string]types.Tenant
}

func NewMemoryTenantStore(tenants ...types.Tenant) *MemoryTenantStore {
	s := &MemoryTenantStore{byID: map[string]types.Tenant{}}
	for _, t := range tenants {
		s.byID[types.NormalizeTenantID(t.ID)] = t
	}
	return s
}

var _ ports.TenantStore = (*MemoryTenantStore)(nil)

func (s *MemoryTenantStore) GetByID(_ context.Context, tenantID string) (types.Tenant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[types.NormalizeTenantID(tenantID)]
	return t, ok, nil
}

func (s *MemoryTenantStore) GetBySubdomain(_ context.Context, subdomain string) (types.Tenant, bool, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byID {
		if strings.ToLower(t.Subdomain) == subdomain {
			return t, true, nil
		}
	}
	return types.Tenant{}, false, nil
}

func (s *MemoryTenantStore) List(_ context.Context) ([]types.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Tenant, 0, len(s.byID))
	for _, t := range s.byID {
		out = append(out, t)
	}
	return out, nil
}

func (s *MemoryTenantStore) Create(_ context.Context, t types.Tenant) error {
	id := types.NormalizeTenantID(t.ID)
	if id == "" {
		return errors.New("persistence: tenant id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; ok {
		return errors.New("persistence: tenant already exists")
	}
	s.byID[id] = t
	return nil
}

func (s *MemoryTenantStore) KnownIssuer(_ context.Context, issuer string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byID {
		if t.IsActive && t.TrustDomain == issuer {
			return true, nil
		}
	}
	return false, nil
}

type MemoryGrantStore struct {
	mu     sync.Mutex
	byPair map[string]types.AccessGrant

	// Queries counts store reads; cache-hit tests assert it stays flat.
	Queries int
}

func NewMemoryGrantStore() *MemoryGrantStore {
	return &MemoryGrantStore{byPair: map[string]types.AccessGrant{}}
}

var _ ports.AccessGrantStore = (*MemoryGrantStore)(nil)

func grantKey(principalID, tenantID string) string {
	return principalID + "\x00" + types.NormalizeTenantID(tenantID)
}

func (s *MemoryGrantStore) GetActive(_ context.Context, principalID string, tenantID string) (types.AccessGrant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries++
	g, ok := s.byPair[grantKey(principalID, tenantID)]
	if !ok || !g.IsActive {
		return types.AccessGrant{}, false, nil
	}
	return g, true, nil
}

func (s *MemoryGrantStore) Create(_ context.Context, g types.AccessGrant) error {
	if g.PrincipalID == "" || types.NormalizeTenantID(g.TenantID) == "" {
		return errors.New("persistence: grant principal and tenant required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.IsPrimary {
		for k, existing := range s.byPair {
			if existing.PrincipalID == g.PrincipalID && existing.IsPrimary {
				existing.IsPrimary = false
				s.byPair[k] = existing
			}
		}
	}
	s.byPair[grantKey(g.PrincipalID, g.TenantID)] = g
	return nil
}

func (s *MemoryGrantStore) Deactivate(_ context.Context, principalID string, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.byPair[grantKey(principalID, tenantID)]
	if !ok {
		return nil
	}
	g.IsActive = false
	s.byPair[grantKey(principalID, tenantID)] = g
	return nil
}
