package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/vinhtranngoc35/e-commerce-app/internal/kafka"
	"github.com/vinhtranngoc35/e-commerce-app/internal/orders"
)

type Ledger interface {
	Deduct(ctx context.Context, customerID, amount int64) (bool, error)
}

type Deduper interface {
	SeenOrMark(ctx context.Context, eventID string) bool
	Forget(ctx context.Context, eventID string)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Consumer performs the real deduction when an order is created. It does not
// share a transaction with the orchestrator's earlier precheck, so the
// balance may have moved in between; the deduction re-checks under the
// ledger's own lock and reports the outcome as an event.
type Consumer struct {
	Ledger Ledger
	Dedup  Deduper

	ProducerCompleted Publisher
	ProducerFailed    Publisher

	ServiceName string
	Log         *zap.Logger
}

// HandleOrderCreated is mounted as the order-created topic handler. Malformed
// messages are logged and skipped; only infrastructure failures return an
// error and leave the offset uncommitted.
func (c *Consumer) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		c.Log.Warn("malformed event envelope, skipping", zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}
	if c.Dedup.SeenOrMark(ctx, env.EventID) {
		c.Log.Info("duplicate delivery, skipping", zap.String("event_id", env.EventID))
		return nil
	}

	payload, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		c.Log.Warn("malformed order-created payload, skipping",
			zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	// Same placeholder amount the orchestrator precharged against: the sum
	// of item quantities. The event carries no monetary amount.
	var amount int64
	for _, it := range payload.Items {
		amount += it.Quantity
	}

	ok, err := c.Ledger.Deduct(ctx, payload.CustomerID, amount)
	if err != nil {
		// the mark must not outlive a failed attempt, or the redelivery
		// would be skipped with nothing deducted and no event published
		c.Dedup.Forget(ctx, env.EventID)
		return err
	}

	c.Log.Info("payment processed",
		zap.String("order_id", payload.OrderID),
		zap.Int64("customer_id", payload.CustomerID),
		zap.Bool("success", ok))

	if ok {
		c.publish(c.ProducerCompleted, orders.EventPaymentCompleted, env.TraceID, payload.OrderID,
			orders.PaymentCompletedPayload{OrderID: payload.OrderID, CustomerID: payload.CustomerID})
	} else {
		c.publish(c.ProducerFailed, orders.EventPaymentFailed, env.TraceID, payload.OrderID,
			orders.PaymentFailedPayload{OrderID: payload.OrderID, CustomerID: payload.CustomerID,
				Reason: orders.ReasonCardDeclined})
	}
	return nil
}

func (c *Consumer) publish(p Publisher, eventType, traceID, orderID string, payload any) {
	env := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      c.ServiceName,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
