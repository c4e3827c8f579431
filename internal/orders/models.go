package orders

import "time"

type Status string

// An order is decided exactly once at creation; there are no later
// transitions.
const (
	StatusCreated  Status = "CREATED"
	StatusRejected Status = "REJECTED"
)

type Order struct {
	ID          string
	CustomerID  int64
	Status      Status
	TotalAmount int64
	CreatedAt   time.Time
	Items       []OrderItem
}

type OrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}
