package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridianclinic/meridian/modules/iam/domain/ports"
)

// RedisDecisionCache shares positive membership decisions across server
// processes. Redis handles expiry; only the value "1" is ever written, so a
// present key is a positive decision and an absent key is a miss. A Redis
// error on read is a miss: the validator falls through to the grant store,
// which keeps the cache strictly an optimization.
type RedisDecisionCache struct {
	client *redis.Client
}

func NewRedisDecisionCache(client *redis.Client) *RedisDecisionCache {
	return &RedisDecisionCache{client: client}
}

var _ ports.DecisionCache = (*RedisDecisionCache)(nil)

func redisDecisionKey(principalID, tenantID string) string {
	return "iam:access:" + principalID + ":" + tenantID
}

func (c *RedisDecisionCache) Get(ctx context.Context, principalID string, tenantID string) (bool, bool) {
	v, err := c.client.Get(ctx, redisDecisionKey(principalID, tenantID)).Result()
	if err != nil {
		return false, false
	}
	return v == "1", v == "1"
}

func (c *RedisDecisionCache) PutPositive(ctx context.Context, principalID string, tenantID string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	_ = c.client.Set(ctx, redisDecisionKey(principalID, tenantID), "1", ttl).Err()
}

func (c *RedisDecisionCache) Evict(ctx context.Context, principalID string, tenantID string) {
	_ = c.client.Del(ctx, redisDecisionKey(principalID, tenantID)).Err()
}
