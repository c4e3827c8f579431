package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated     = "OrderCreated"
	EventOrderRejected    = "OrderRejected"
	EventPaymentCompleted = "PaymentCompleted"
	EventPaymentFailed    = "PaymentFailed"
)

const (
	// ReasonInsufficientStock is the only rejection reason the order flow
	// emits, even when the real cause was the payment precheck.
	ReasonInsufficientStock = "INSUFFICIENT_STOCK"
	ReasonCardDeclined      = "CARD_DECLINED"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemEvent struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type OrderCreatedPayload struct {
	OrderID    string      `json:"order_id"`
	CustomerID int64       `json:"customer_id"`
	Items      []ItemEvent `json:"items"`
}

type OrderRejectedPayload struct {
	OrderID    string      `json:"order_id"`
	CustomerID int64       `json:"customer_id"`
	Reason     string      `json:"reason"`
	Items      []ItemEvent `json:"items"`
}

type PaymentCompletedPayload struct {
	OrderID    string `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
}

type PaymentFailedPayload struct {
	OrderID    string `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	Reason     string `json:"reason"`
}

// PartitionKey keys every event of one order to the same partition so its
// events stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
