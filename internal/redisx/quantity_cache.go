package redisx

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// QuantityCache keeps product quantities in Redis. It never surfaces backend
// errors: a failed read acts like a full miss, a failed write is logged and
// dropped, so the caller degrades to the store instead of failing.
type QuantityCache struct {
	RDB *redis.Client
	Log *zap.Logger
}

// GetMany returns whatever entries are present for ids. The result may be
// partial or empty; a missing key means the caller must resolve it elsewhere.
func (c *QuantityCache) GetMany(ctx context.Context, ids []int64) map[int64]int64 {
	out := make(map[int64]int64, len(ids))
	if len(ids) == 0 {
		return out
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf(KeyProductQty, id)
	}
	vals, err := c.RDB.MGet(ctx, keys...).Result()
	if err != nil {
		c.Log.Warn("cache read failed, treating as full miss", zap.Error(err))
		return out
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // nil: key absent
		}
		qty, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			c.Log.Warn("cache entry not an integer, skipping",
				zap.String("key", keys[i]), zap.String("value", s))
			continue
		}
		out[ids[i]] = qty
	}
	return out
}

// Set writes one entry with the given TTL. Failures are swallowed.
func (c *QuantityCache) Set(ctx context.Context, id, qty int64, ttl time.Duration) {
	key := fmt.Sprintf(KeyProductQty, id)
	if err := c.RDB.Set(ctx, key, qty, ttl).Err(); err != nil {
		c.Log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
