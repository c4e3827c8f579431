package cachesync

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/vinhtranngoc35/e-commerce-app/internal/redisx"
)

type Cache interface {
	Set(ctx context.Context, id, qty int64, ttl time.Duration)
}

// Consumer follows the product table's change stream and refreshes the
// quantity cache out-of-band. It races with the read path's write-through;
// whoever arrives last wins, which is the accepted consistency model.
type Consumer struct {
	Cache Cache
	Log   *zap.Logger
}

// Debezium row envelope. Only op and the post-change image matter here.
type changeEnvelope struct {
	Payload struct {
		Op     string          `json:"op"`
		Before json.RawMessage `json:"before"`
		After  *productRow     `json:"after"`
	} `json:"payload"`
}

type productRow struct {
	ID       int64  `json:"id"`
	Quantity *int64 `json:"quantity"`
}

const (
	opCreate = "c"
	opUpdate = "u"
	opDelete = "d"
)

// Handle processes one CDC message. It always returns nil: a bad message is
// logged and skipped so the listen loop never stalls on it.
func (c *Consumer) Handle(ctx context.Context, m kafkago.Message) error {
	var env changeEnvelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		c.Log.Warn("malformed CDC message, skipping", zap.Error(err))
		return nil
	}

	switch env.Payload.Op {
	case opCreate, opUpdate:
	case opDelete:
		// deletes are left to the entry's own TTL
		return nil
	default:
		c.Log.Warn("unknown CDC op, skipping", zap.String("op", env.Payload.Op))
		return nil
	}

	after := env.Payload.After
	if after == nil || after.ID == 0 || after.Quantity == nil {
		c.Log.Warn("CDC message without usable row image, skipping",
			zap.String("op", env.Payload.Op))
		return nil
	}

	c.Cache.Set(ctx, after.ID, *after.Quantity, redisx.TTLQuantity)
	c.Log.Info("cache refreshed from CDC",
		zap.Int64("product_id", after.ID), zap.Int64("quantity", *after.Quantity))
	return nil
}
