package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/meridianclinic/meridian/modules/iam/domain/ports"
)

type memoryEntry struct {
	createdAt time.Time
	ttl       time.Duration
}

// MemoryDecisionCache is the process-wide in-memory decision cache. An entry
// older than its TTL is treated as absent even before the sweeper has removed
// it.
type MemoryDecisionCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   clockwork.Clock
}

func NewMemoryDecisionCache(clock clockwork.Clock) *MemoryDecisionCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryDecisionCache{
		entries: map[string]memoryEntry{},
		clock:   clock,
	}
}

var _ ports.DecisionCache = (*MemoryDecisionCache)(nil)

func decisionKey(principalID, tenantID string) string {
	return principalID + "\x00" + tenantID
}

func (c *MemoryDecisionCache) Get(_ context.Context, principalID string, tenantID string) (bool, bool) {
	c.mu.RLock()
	e, ok := c.entries[decisionKey(principalID, tenantID)]
	c.mu.RUnlock()
	if !ok {
		return false, false
	}
	if c.clock.Since(e.createdAt) >= e.ttl {
		// Lazy expiry: drop it now so the map does not grow unbounded.
		c.mu.Lock()
		if cur, ok := c.entries[decisionKey(principalID, tenantID)]; ok && cur.createdAt.Equal(e.createdAt) {
			delete(c.entries, decisionKey(principalID, tenantID))
		}
		c.mu.Unlock()
		return false, false
	}
	return true, true
}

func (c *MemoryDecisionCache) PutPositive(_ context.Context, principalID string, tenantID string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[decisionKey(principalID, tenantID)] = memoryEntry{createdAt: c.clock.Now(), ttl: ttl}
	c.mu.Unlock()
}

func (c *MemoryDecisionCache) Evict(_ context.Context, principalID string, tenantID string) {
	c.mu.Lock()
	delete(c.entries, decisionKey(principalID, tenantID))
	c.mu.Unlock()
}

// Len is exposed for tests and operational introspection.
func (c *MemoryDecisionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
