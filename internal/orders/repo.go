package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

type Repository interface {
	// Create persists the order and its items in one transaction.
	Create(ctx context.Context, o Order) error
	// Get returns ErrNotFound when no such order exists.
	Get(ctx context.Context, id string) (Order, error)
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, o Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, customer_id, status, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.CustomerID, string(o.Status), o.TotalAmount, o.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, quantity)
			VALUES ($1, $2, $3)`,
			o.ID, it.ProductID, it.Quantity,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, customer_id, status, total_amount, created_at
		FROM orders WHERE id=$1`, id,
	).Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT product_id, quantity FROM order_items
		WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}
