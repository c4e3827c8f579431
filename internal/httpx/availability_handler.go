package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vinhtranngoc35/e-commerce-app/internal/product"
)

type AvailabilityService interface {
	CheckAvailability(ctx context.Context, items []product.CheckItem) ([]product.Availability, error)
}

type AvailabilityHandler struct {
	Service AvailabilityService
	Timeout time.Duration
}

func (h *AvailabilityHandler) Register(r *chi.Mux) {
	r.Post("/check-availability", h.checkAvailability)
}

func (h *AvailabilityHandler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	var items []product.CheckItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "empty batch")
		return
	}
	for _, it := range items {
		if it.ProductID <= 0 || it.Quantity < 1 {
			writeError(w, http.StatusBadRequest, "productId and quantity must be positive")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	out, err := h.Service.CheckAvailability(ctx, items)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}
