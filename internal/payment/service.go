package payment

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Service is the payment ledger: a synchronous balance precheck and a
// check-and-deduct used by the async order-created listener.
type Service struct {
	Repo AccountRepo
	Log  *zap.Logger
}

// HasSufficientBalance compares without side effect. An absent account reads
// as insufficient, not as an error.
func (s *Service) HasSufficientBalance(ctx context.Context, customerID, amount int64) (bool, error) {
	balance, err := s.Repo.Balance(ctx, customerID)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

// Deduct re-reads and subtracts under the repo's per-account serialization.
// The balance may have changed since any earlier precheck; that window is
// inherent to the flow.
func (s *Service) Deduct(ctx context.Context, customerID, amount int64) (bool, error) {
	ok, err := s.Repo.Deduct(ctx, customerID, amount)
	if err != nil {
		return false, err
	}
	if !ok {
		s.Log.Info("deduction refused",
			zap.Int64("customer_id", customerID), zap.Int64("amount", amount))
	}
	return ok, nil
}
