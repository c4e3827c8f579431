package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/vinhtranngoc35/e-commerce-app/internal/kafka"
	"github.com/vinhtranngoc35/e-commerce-app/internal/product"
)

var ErrNoItems = errors.New("order must contain at least one item")

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, items []product.CheckItem) ([]product.Availability, error)
}

type BalanceChecker interface {
	HasSufficientBalance(ctx context.Context, customerID, amount int64) (bool, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service decides an order in one shot: stock check, payment precheck, local
// commit, then exactly one terminal event. There is no retry and no partial
// persistence; a dependency error aborts the whole thing.
type Service struct {
	Availability AvailabilityChecker
	Payments     BalanceChecker
	Repo         Repository

	ProducerCreated  Publisher
	ProducerRejected Publisher

	ServiceName    string
	Log            *zap.Logger
	CheckTimeout   time.Duration
	PaymentTimeout time.Duration
}

func (s *Service) CreateOrder(ctx context.Context, customerID int64, items []OrderItem) (Order, error) {
	if len(items) == 0 {
		return Order{}, ErrNoItems
	}

	checkItems := make([]product.CheckItem, 0, len(items))
	for _, it := range items {
		checkItems = append(checkItems, product.CheckItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	actx, cancel := context.WithTimeout(ctx, s.CheckTimeout)
	availability, err := s.Availability.CheckAvailability(actx, checkItems)
	cancel()
	if err != nil {
		return Order{}, fmt.Errorf("availability check: %w", err)
	}

	allAvailable := true
	for _, a := range availability {
		if !a.Available {
			allAvailable = false
			break
		}
	}

	status := StatusRejected
	if allAvailable {
		status = StatusCreated
	}

	// Placeholder amount: sum of requested quantities, not unit prices.
	// Kept on purpose until a pricing source exists.
	var total int64
	for _, it := range items {
		total += it.Quantity
	}

	pctx, cancel := context.WithTimeout(ctx, s.PaymentTimeout)
	ok, err := s.Payments.HasSufficientBalance(pctx, customerID, total)
	cancel()
	if err != nil {
		return Order{}, fmt.Errorf("payment precheck: %w", err)
	}
	if !ok {
		// payment always overrides a stock-based CREATED decision
		status = StatusRejected
	}

	order := Order{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		Status:      status,
		TotalAmount: total,
		CreatedAt:   time.Now().UTC(),
		Items:       items,
	}
	if err := s.Repo.Create(ctx, order); err != nil {
		return Order{}, fmt.Errorf("persist order: %w", err)
	}

	// Published after the commit and not guarded by it: a crash in between
	// drops the event.
	s.publishDecision(ctx, order)

	s.Log.Info("order decided",
		zap.String("order_id", order.ID),
		zap.Int64("customer_id", customerID),
		zap.String("status", string(status)))
	return order, nil
}

func (s *Service) publishDecision(ctx context.Context, o Order) {
	itemEvents := make([]ItemEvent, 0, len(o.Items))
	for _, it := range o.Items {
		itemEvents = append(itemEvents, ItemEvent{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	env := Envelope{
		EventID:       uuid.NewString(),
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: o.ID,
	}

	var producer Publisher
	if o.Status == StatusCreated {
		env.EventType = EventOrderCreated
		env.Payload = kafkax.MustMarshal(OrderCreatedPayload{
			OrderID: o.ID, CustomerID: o.CustomerID, Items: itemEvents,
		})
		producer = s.ProducerCreated
	} else {
		env.EventType = EventOrderRejected
		env.Payload = kafkax.MustMarshal(OrderRejectedPayload{
			OrderID: o.ID, CustomerID: o.CustomerID,
			Reason: ReasonInsufficientStock, Items: itemEvents,
		})
		producer = s.ProducerRejected
	}

	producer.Publish(PartitionKey(o.ID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	return s.Repo.Get(ctx, id)
}
