package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vinhtranngoc35/e-commerce-app/internal/redisx"
)

type fakeCache struct {
	entries map[int64]int64
	broken  bool
	sets    map[int64]int64
	setTTLs map[int64]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: map[int64]int64{},
		sets:    map[int64]int64{},
		setTTLs: map[int64]time.Duration{},
	}
}

func (c *fakeCache) GetMany(_ context.Context, ids []int64) map[int64]int64 {
	out := map[int64]int64{}
	if c.broken {
		return out
	}
	for _, id := range ids {
		if q, ok := c.entries[id]; ok {
			out[id] = q
		}
	}
	return out
}

func (c *fakeCache) Set(_ context.Context, id, qty int64, ttl time.Duration) {
	if c.broken {
		return
	}
	c.entries[id] = qty
	c.sets[id] = qty
	c.setTTLs[id] = ttl
}

type fakeStore struct {
	rows    map[int64]int64
	err     error
	queries [][]int64
}

func (s *fakeStore) QuantitiesByIDs(_ context.Context, ids []int64) (map[int64]int64, error) {
	s.queries = append(s.queries, ids)
	if s.err != nil {
		return nil, s.err
	}
	out := map[int64]int64{}
	for _, id := range ids {
		if q, ok := s.rows[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func newService(c *fakeCache, s *fakeStore) *Service {
	return &Service{Cache: c, Store: s, Log: zap.NewNop(), StoreTimeout: time.Second}
}

func TestCheckAvailability_PreservesOrderAndDuplicates(t *testing.T) {
	cache := newFakeCache()
	store := &fakeStore{rows: map[int64]int64{10: 5, 20: 1}}
	svc := newService(cache, store)

	req := []CheckItem{
		{ProductID: 10, Quantity: 2},
		{ProductID: 20, Quantity: 2},
		{ProductID: 10, Quantity: 9},
		{ProductID: 30, Quantity: 1},
	}
	got, err := svc.CheckAvailability(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, got, 4)

	require.Equal(t, Availability{ProductID: 10, Available: true, AvailableQty: 5}, got[0])
	require.Equal(t, Availability{ProductID: 20, Available: false, AvailableQty: 1}, got[1])
	require.Equal(t, Availability{ProductID: 10, Available: false, AvailableQty: 5}, got[2])
	require.Equal(t, Availability{ProductID: 30, Available: false, AvailableQty: 0}, got[3])

	// duplicates collapse into one store lookup
	require.Len(t, store.queries, 1)
	require.Equal(t, []int64{10, 20, 30}, store.queries[0])
}

func TestCheckAvailability_CacheHitSkipsStore(t *testing.T) {
	cache := newFakeCache()
	cache.entries[10] = 7
	store := &fakeStore{rows: map[int64]int64{10: 7}}
	svc := newService(cache, store)

	got, err := svc.CheckAvailability(context.Background(), []CheckItem{{ProductID: 10, Quantity: 3}})
	require.NoError(t, err)
	require.True(t, got[0].Available)
	require.EqualValues(t, 7, got[0].AvailableQty)
	require.Empty(t, store.queries)
}

func TestCheckAvailability_WriteThroughTTLs(t *testing.T) {
	cache := newFakeCache()
	store := &fakeStore{rows: map[int64]int64{10: 5}}
	svc := newService(cache, store)

	_, err := svc.CheckAvailability(context.Background(), []CheckItem{
		{ProductID: 10, Quantity: 1},
		{ProductID: 99, Quantity: 1},
	})
	require.NoError(t, err)

	require.EqualValues(t, 5, cache.sets[10])
	require.Equal(t, redisx.TTLQuantity, cache.setTTLs[10])
	require.Equal(t, redisx.QtyNotFound, cache.sets[99])
	require.Equal(t, redisx.TTLNegative, cache.setTTLs[99])
}

func TestCheckAvailability_NegativeCacheSkipsStore(t *testing.T) {
	cache := newFakeCache()
	store := &fakeStore{rows: map[int64]int64{}}
	svc := newService(cache, store)

	// first call resolves absence from the store and caches the sentinel
	got, err := svc.CheckAvailability(context.Background(), []CheckItem{{ProductID: 404, Quantity: 1}})
	require.NoError(t, err)
	require.False(t, got[0].Available)
	require.EqualValues(t, 0, got[0].AvailableQty)
	require.Len(t, store.queries, 1)

	// second call within the negative TTL answers from the cache alone
	got, err = svc.CheckAvailability(context.Background(), []CheckItem{{ProductID: 404, Quantity: 1}})
	require.NoError(t, err)
	require.False(t, got[0].Available)
	require.EqualValues(t, 0, got[0].AvailableQty)
	require.Len(t, store.queries, 1)
}

func TestCheckAvailability_CacheFailureFallsBackToStore(t *testing.T) {
	cache := newFakeCache()
	cache.broken = true
	store := &fakeStore{rows: map[int64]int64{10: 5, 20: 2}}
	svc := newService(cache, store)

	got, err := svc.CheckAvailability(context.Background(), []CheckItem{
		{ProductID: 10, Quantity: 5},
		{ProductID: 20, Quantity: 5},
	})
	require.NoError(t, err)
	require.True(t, got[0].Available)
	require.False(t, got[1].Available)

	// every id went to the store in one batch
	require.Len(t, store.queries, 1)
	require.Equal(t, []int64{10, 20}, store.queries[0])
}

func TestCheckAvailability_StoreFailurePropagates(t *testing.T) {
	cache := newFakeCache()
	store := &fakeStore{err: errors.New("connection refused")}
	svc := newService(cache, store)

	_, err := svc.CheckAvailability(context.Background(), []CheckItem{{ProductID: 10, Quantity: 1}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "load quantities")
}

func TestCheckAvailability_EmptyRequest(t *testing.T) {
	cache := newFakeCache()
	store := &fakeStore{}
	svc := newService(cache, store)

	got, err := svc.CheckAvailability(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Empty(t, store.queries)
}
