package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dedup remembers processed event ids per consumer so a redelivered message
// is not handled twice. Best effort: if Redis is down it answers "not seen"
// and the handler runs again.
type Dedup struct {
	RDB     *redis.Client
	Service string
	Log     *zap.Logger
}

// SeenOrMark reports whether eventID was already processed and marks it
// otherwise.
func (d *Dedup) SeenOrMark(ctx context.Context, eventID string) bool {
	key := fmt.Sprintf(KeyDedup, d.Service, eventID)
	ok, err := d.RDB.SetNX(ctx, key, "1", TTLDedup).Result()
	if err != nil {
		d.Log.Warn("dedup check failed, processing anyway", zap.Error(err))
		return false
	}
	return !ok
}

// Forget drops the mark for eventID so a redelivery is processed again.
// Called when processing failed after the mark was already set; without it
// the redelivery would be skipped with nothing done.
func (d *Dedup) Forget(ctx context.Context, eventID string) {
	key := fmt.Sprintf(KeyDedup, d.Service, eventID)
	if err := d.RDB.Del(ctx, key).Err(); err != nil {
		d.Log.Warn("dedup unmark failed", zap.String("key", key), zap.Error(err))
	}
}
