package payment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAccountNotFound = errors.New("payment account not found")

type AccountRepo interface {
	// Balance returns ErrAccountNotFound when the customer has no account.
	Balance(ctx context.Context, customerID int64) (int64, error)
	// Deduct atomically checks and subtracts. Returns false without mutating
	// when the account is absent or the balance is short. Implementations
	// must serialize deductions per account.
	Deduct(ctx context.Context, customerID, amount int64) (bool, error)
}

type PGRepo struct{ DB *pgxpool.Pool }

func (r *PGRepo) Balance(ctx context.Context, customerID int64) (int64, error) {
	var balance int64
	err := r.DB.QueryRow(ctx,
		`SELECT balance FROM payment_account WHERE customer_id=$1`, customerID,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Deduct locks the account row for the check-then-subtract so concurrent
// deductions cannot both pass the check.
func (r *PGRepo) Deduct(ctx context.Context, customerID, amount int64) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var balance int64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM payment_account WHERE customer_id=$1 FOR UPDATE`, customerID,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if balance < amount {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE payment_account SET balance = balance - $2 WHERE customer_id=$1`,
		customerID, amount,
	)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
