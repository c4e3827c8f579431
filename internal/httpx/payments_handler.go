package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type PaymentService interface {
	HasSufficientBalance(ctx context.Context, customerID, amount int64) (bool, error)
}

type PaymentsHandler struct {
	Service PaymentService
	Timeout time.Duration
}

type PrecheckReq struct {
	CustomerID int64 `json:"customerId"`
	Amount     int64 `json:"amount"`
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Post("/payments/precheck", h.precheck)
}

func (h *PaymentsHandler) precheck(w http.ResponseWriter, r *http.Request) {
	var req PrecheckReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.CustomerID <= 0 || req.Amount < 0 {
		writeError(w, http.StatusBadRequest, "customerId must be positive, amount non-negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	ok, err := h.Service.HasSufficientBalance(ctx, req.CustomerID, req.Amount)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ok)
}
