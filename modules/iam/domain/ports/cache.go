package ports

import (
	"context"
	"time"
)

// DecisionCache holds positive membership decisions keyed by
// (principal, tenant). Implementations store only true values; a negative
// or failed lookup is never cached, so revocation staleness is bounded by
// the TTL and denial staleness does not exist.
type DecisionCache interface {
	Get(ctx context.Context, principalID string, tenantID string) (bool, bool)
	PutPositive(ctx context.Context, principalID string, tenantID string, ttl time.Duration)
	Evict(ctx context.Context, principalID string, tenantID string)
}
