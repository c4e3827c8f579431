package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	kafkax "github.com/vinhtranngoc35/e-commerce-app/internal/kafka"
	"github.com/vinhtranngoc35/e-commerce-app/internal/orders"
)

type fakeDedup struct{ seen map[string]bool }

func (f *fakeDedup) SeenOrMark(_ context.Context, id string) bool {
	if f.seen[id] {
		return true
	}
	f.seen[id] = true
	return false
}

func (f *fakeDedup) Forget(_ context.Context, id string) { delete(f.seen, id) }

type capturePublisher struct{ values [][]byte }

func (p *capturePublisher) Publish(_, value []byte, _ ...kafkago.Header) {
	p.values = append(p.values, value)
}

type errLedger struct{ err error }

func (l *errLedger) Deduct(context.Context, int64, int64) (bool, error) { return false, l.err }

// flakyLedger errors a fixed number of times, then delegates.
type flakyLedger struct {
	inner    Ledger
	failures int
}

func (l *flakyLedger) Deduct(ctx context.Context, customerID, amount int64) (bool, error) {
	if l.failures > 0 {
		l.failures--
		return false, errors.New("db down")
	}
	return l.inner.Deduct(ctx, customerID, amount)
}

func orderCreatedMessage(t *testing.T, eventID string, customerID int64, items []orders.ItemEvent) kafkago.Message {
	t.Helper()
	env := orders.Envelope{
		EventID:      eventID,
		EventType:    orders.EventOrderCreated,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "shop-api-test",
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID: "order-1", CustomerID: customerID, Items: items,
		}),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func newPaymentConsumer(repo AccountRepo) (*Consumer, *capturePublisher, *capturePublisher) {
	completed := &capturePublisher{}
	failed := &capturePublisher{}
	c := &Consumer{
		Ledger:            &Service{Repo: repo, Log: zap.NewNop()},
		Dedup:             &fakeDedup{seen: map[string]bool{}},
		ProducerCompleted: completed,
		ProducerFailed:    failed,
		ServiceName:       "payment-svc-test",
		Log:               zap.NewNop(),
	}
	return c, completed, failed
}

func TestHandleOrderCreated_Completed(t *testing.T) {
	repo := NewMemoryRepo(map[int64]int64{1: 10})
	c, completed, failed := newPaymentConsumer(repo)

	m := orderCreatedMessage(t, uuid.NewString(), 1, []orders.ItemEvent{
		{ProductID: 10, Quantity: 2},
		{ProductID: 20, Quantity: 3},
	})
	require.NoError(t, c.HandleOrderCreated(context.Background(), m))

	require.Len(t, completed.values, 1)
	require.Empty(t, failed.values)

	// amount deducted is the quantity sum
	balance, err := repo.Balance(context.Background(), 1)
	require.NoError(t, err)
	require.EqualValues(t, 5, balance)

	var env orders.Envelope
	require.NoError(t, json.Unmarshal(completed.values[0], &env))
	require.Equal(t, orders.EventPaymentCompleted, env.EventType)
	payload, err := kafkax.UnwrapPayload[orders.PaymentCompletedPayload](env.Payload)
	require.NoError(t, err)
	require.Equal(t, "order-1", payload.OrderID)
}

func TestHandleOrderCreated_Failed(t *testing.T) {
	repo := NewMemoryRepo(map[int64]int64{1: 1})
	c, completed, failed := newPaymentConsumer(repo)

	m := orderCreatedMessage(t, uuid.NewString(), 1, []orders.ItemEvent{{ProductID: 10, Quantity: 5}})
	require.NoError(t, c.HandleOrderCreated(context.Background(), m))

	require.Empty(t, completed.values)
	require.Len(t, failed.values, 1)

	var env orders.Envelope
	require.NoError(t, json.Unmarshal(failed.values[0], &env))
	payload, err := kafkax.UnwrapPayload[orders.PaymentFailedPayload](env.Payload)
	require.NoError(t, err)
	require.Equal(t, orders.ReasonCardDeclined, payload.Reason)

	// no partial deduction
	balance, err := repo.Balance(context.Background(), 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, balance)
}

func TestHandleOrderCreated_RedeliverySkipped(t *testing.T) {
	repo := NewMemoryRepo(map[int64]int64{1: 10})
	c, completed, _ := newPaymentConsumer(repo)

	m := orderCreatedMessage(t, "event-1", 1, []orders.ItemEvent{{ProductID: 10, Quantity: 2}})
	require.NoError(t, c.HandleOrderCreated(context.Background(), m))
	require.NoError(t, c.HandleOrderCreated(context.Background(), m))

	// deducted once, announced once
	balance, err := repo.Balance(context.Background(), 1)
	require.NoError(t, err)
	require.EqualValues(t, 8, balance)
	require.Len(t, completed.values, 1)
}

func TestHandleOrderCreated_IgnoresOtherEventTypes(t *testing.T) {
	repo := NewMemoryRepo(map[int64]int64{1: 10})
	c, completed, failed := newPaymentConsumer(repo)

	env := orders.Envelope{EventID: "x", EventType: orders.EventOrderRejected,
		Payload: json.RawMessage(`{}`)}
	m := kafkago.Message{Value: kafkax.MustMarshal(env)}
	require.NoError(t, c.HandleOrderCreated(context.Background(), m))
	require.Empty(t, completed.values)
	require.Empty(t, failed.values)
}

func TestHandleOrderCreated_MalformedSkipped(t *testing.T) {
	repo := NewMemoryRepo(map[int64]int64{1: 10})
	c, completed, failed := newPaymentConsumer(repo)

	require.NoError(t, c.HandleOrderCreated(context.Background(), kafkago.Message{Value: []byte("garbage")}))

	env := orders.Envelope{EventID: "y", EventType: orders.EventOrderCreated,
		Payload: json.RawMessage(`"not an object"`)}
	require.NoError(t, c.HandleOrderCreated(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)}))

	require.Empty(t, completed.values)
	require.Empty(t, failed.values)
}

func TestHandleOrderCreated_RetriedAfterLedgerError(t *testing.T) {
	repo := NewMemoryRepo(map[int64]int64{1: 10})
	dedup := &fakeDedup{seen: map[string]bool{}}
	completed := &capturePublisher{}
	failed := &capturePublisher{}
	c := &Consumer{
		Ledger:            &flakyLedger{inner: &Service{Repo: repo, Log: zap.NewNop()}, failures: 1},
		Dedup:             dedup,
		ProducerCompleted: completed,
		ProducerFailed:    failed,
		ServiceName:       "payment-svc-test",
		Log:               zap.NewNop(),
	}

	m := orderCreatedMessage(t, "event-retry", 1, []orders.ItemEvent{{ProductID: 10, Quantity: 2}})
	require.Error(t, c.HandleOrderCreated(context.Background(), m))

	// the failed attempt must not leave a mark behind
	require.False(t, dedup.seen["event-retry"])

	// redelivery after the transient failure deducts and publishes
	require.NoError(t, c.HandleOrderCreated(context.Background(), m))
	balance, err := repo.Balance(context.Background(), 1)
	require.NoError(t, err)
	require.EqualValues(t, 8, balance)
	require.Len(t, completed.values, 1)
	require.Empty(t, failed.values)

	// a further delivery is a true duplicate and is skipped
	require.NoError(t, c.HandleOrderCreated(context.Background(), m))
	balance, err = repo.Balance(context.Background(), 1)
	require.NoError(t, err)
	require.EqualValues(t, 8, balance)
	require.Len(t, completed.values, 1)
}

func TestHandleOrderCreated_LedgerErrorRequeues(t *testing.T) {
	c := &Consumer{
		Ledger:            &errLedger{err: errors.New("db down")},
		Dedup:             &fakeDedup{seen: map[string]bool{}},
		ProducerCompleted: &capturePublisher{},
		ProducerFailed:    &capturePublisher{},
		ServiceName:       "payment-svc-test",
		Log:               zap.NewNop(),
	}
	m := orderCreatedMessage(t, uuid.NewString(), 1, []orders.ItemEvent{{ProductID: 10, Quantity: 2}})
	require.Error(t, c.HandleOrderCreated(context.Background(), m))
}
