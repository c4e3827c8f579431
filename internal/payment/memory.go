package payment

import (
	"context"
	"sync"
)

// MemoryRepo is a mutex-guarded AccountRepo for tests and local runs.
type MemoryRepo struct {
	mu       sync.Mutex
	balances map[int64]int64
}

func NewMemoryRepo(balances map[int64]int64) *MemoryRepo {
	m := &MemoryRepo{balances: make(map[int64]int64, len(balances))}
	for id, b := range balances {
		m.balances[id] = b
	}
	return m
}

func (m *MemoryRepo) Balance(_ context.Context, customerID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[customerID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return b, nil
}

func (m *MemoryRepo) Deduct(_ context.Context, customerID, amount int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[customerID]
	if !ok || b < amount {
		return false, nil
	}
	m.balances[customerID] = b - amount
	return true, nil
}
