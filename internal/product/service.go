package product

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vinhtranngoc35/e-commerce-app/internal/redisx"
)

type CheckItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

type Availability struct {
	ProductID    int64 `json:"productId"`
	Available    bool  `json:"available"`
	AvailableQty int64 `json:"availableQty"`
}

// Cache is the availability cache. Implementations never return errors: a
// broken backend reads as a miss and writes are dropped.
type Cache interface {
	GetMany(ctx context.Context, ids []int64) map[int64]int64
	Set(ctx context.Context, id, qty int64, ttl time.Duration)
}

// Store is the source of truth for product quantities.
type Store interface {
	QuantitiesByIDs(ctx context.Context, ids []int64) (map[int64]int64, error)
}

// Service answers batched availability questions cache-aside: cache first,
// store for the misses, write-through with per-kind TTLs.
type Service struct {
	Cache        Cache
	Store        Store
	Log          *zap.Logger
	StoreTimeout time.Duration
}

// CheckAvailability resolves a quantity per requested item. The response has
// the same length and order as the request, duplicates included. Store
// failures propagate; cache failures degrade to a store round trip.
func (s *Service) CheckAvailability(ctx context.Context, items []CheckItem) ([]Availability, error) {
	ids := dedupe(items)

	resolved := s.Cache.GetMany(ctx, ids)

	var missing []int64
	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		sctx := ctx
		if s.StoreTimeout > 0 {
			var cancel context.CancelFunc
			sctx, cancel = context.WithTimeout(ctx, s.StoreTimeout)
			defer cancel()
		}
		fromStore, err := s.Store.QuantitiesByIDs(sctx, missing)
		if err != nil {
			return nil, fmt.Errorf("load quantities: %w", err)
		}

		for _, id := range missing {
			qty, ok := fromStore[id]
			if !ok {
				// absent from the store: cache the fact briefly
				qty = redisx.QtyNotFound
			}
			resolved[id] = qty
			ttl := redisx.TTLQuantity
			if qty == redisx.QtyNotFound {
				ttl = redisx.TTLNegative
			}
			s.Cache.Set(ctx, id, qty, ttl)
		}
	}

	out := make([]Availability, 0, len(items))
	for _, it := range items {
		qty, ok := resolved[it.ProductID]
		if !ok || qty == redisx.QtyNotFound {
			out = append(out, Availability{ProductID: it.ProductID})
			continue
		}
		out = append(out, Availability{
			ProductID:    it.ProductID,
			Available:    qty >= it.Quantity,
			AvailableQty: qty,
		})
	}
	return out, nil
}

// dedupe returns unique product ids preserving first-seen order.
func dedupe(items []CheckItem) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}
