package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vinhtranngoc35/e-commerce-app/internal/orders"
)

type OrderService interface {
	CreateOrder(ctx context.Context, customerID int64, items []orders.OrderItem) (orders.Order, error)
	GetOrder(ctx context.Context, id string) (orders.Order, error)
}

type OrdersHandler struct {
	Service OrderService
	Timeout time.Duration
}

type CreateOrderReq struct {
	CustomerID int64              `json:"customerId"`
	Items      []orders.OrderItem `json:"items"`
}

type OrderResp struct {
	ID          string             `json:"id"`
	CustomerID  int64              `json:"customerId"`
	Status      string             `json:"status"`
	TotalAmount int64              `json:"totalAmount"`
	Items       []orders.OrderItem `json:"items"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
}

func toOrderResp(o orders.Order) OrderResp {
	return OrderResp{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		Items:       o.Items,
	}
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.CustomerID <= 0 || len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "customerId and at least one item are required")
		return
	}
	for _, it := range req.Items {
		if it.ProductID <= 0 || it.Quantity < 1 {
			writeError(w, http.StatusBadRequest, "productId and quantity must be positive")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	order, err := h.Service.CreateOrder(ctx, req.CustomerID, req.Items)
	if errors.Is(err, orders.ErrNoItems) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		// a dependency refused or the commit failed; nothing was persisted
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	// a REJECTED order is a normal outcome, not an error
	writeJSON(w, http.StatusOK, toOrderResp(order))
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	order, err := h.Service.GetOrder(ctx, id)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(order))
}
