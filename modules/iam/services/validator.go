package services

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/meridianclinic/meridian/modules/iam/domain/ports"
	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

const (
	DefaultAccessCacheTTL = 5 * time.Minute
	defaultStoreTimeout   = 3 * time.Second
	storeRetryAttempts    = 2
	storeRetryBackoff     = 100 * time.Millisecond
)

// AccessValidator answers "does principal P have active access to tenant T",
// cache-first. Only positive answers are cached: a stale cache can at worst
// make revoked access look valid for up to the TTL, never make valid access
// look revoked. Any store failure is a denial (fail closed).
type AccessValidator struct {
	grants       ports.AccessGrantStore
	cache        ports.DecisionCache
	ttl          time.Duration
	storeTimeout time.Duration
	log          *zap.Logger
}

func NewAccessValidator(grants ports.AccessGrantStore, cache ports.DecisionCache, ttl time.Duration, log *zap.Logger) *AccessValidator {
	if ttl <= 0 {
		ttl = DefaultAccessCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AccessValidator{
		grants:       grants,
		cache:        cache,
		ttl:          ttl,
		storeTimeout: defaultStoreTimeout,
		log:          log,
	}
}

func (v *AccessValidator) HasAccess(ctx context.Context, principalID string, tenantID string) (bool, error) {
	tenantID = types.NormalizeTenantID(tenantID)
	if principalID == "" || tenantID == "" {
		return false, nil
	}

	if hit, ok := v.cache.Get(ctx, principalID, tenantID); ok {
		return hit, nil
	}

	grant, found, err := v.lookupGrant(ctx, principalID, tenantID)
	if err != nil {
		v.log.Error("access grant lookup failed, denying",
			zap.String("principal", principalID),
			zap.String("tenant", tenantID),
			zap.Error(err),
		)
		return false, err
	}
	if !found || !grant.IsActive {
		// Negative result: not cached, the next call re-queries the store.
		return false, nil
	}

	v.cache.PutPositive(ctx, principalID, tenantID, v.ttl)
	return true, nil
}

// Evict drops any cached decision for the pair. Grant revocation must call
// this synchronously as part of the revoke operation, not as a best-effort
// afterthought.
func (v *AccessValidator) Evict(ctx context.Context, principalID string, tenantID string) {
	v.cache.Evict(ctx, principalID, types.NormalizeTenantID(tenantID))
}

// ValidateRole reads the grant's role set directly. Role sets are small and
// change rarely; re-reading the row keeps this free of a second cache to
// invalidate.
func (v *AccessValidator) ValidateRole(ctx context.Context, principalID string, tenantID string, requiredRole string) (bool, error) {
	tenantID = types.NormalizeTenantID(tenantID)
	grant, found, err := v.lookupGrant(ctx, principalID, tenantID)
	if err != nil {
		return false, err
	}
	if !found || !grant.IsActive {
		return false, nil
	}
	return grant.HasRole(requiredRole), nil
}

// lookupGrant queries the grant store under a timeout, retrying connectivity
// failures a bounded number of times. A cancelled caller context is not
// retried.
func (v *AccessValidator) lookupGrant(ctx context.Context, principalID string, tenantID string) (types.AccessGrant, bool, error) {
	var grant types.AccessGrant
	var found bool

	backoff := retry.WithMaxRetries(storeRetryAttempts, retry.NewConstant(storeRetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		qctx, cancel := context.WithTimeout(ctx, v.storeTimeout)
		defer cancel()

		g, ok, err := v.grants.GetActive(qctx, principalID, tenantID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(err)
		}
		grant, found = g, ok
		return nil
	})
	if err != nil {
		return types.AccessGrant{}, false, err
	}
	return grant, found, nil
}
