package product

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// QuantitiesByIDs fetches quantities for ids in one batched query. Ids with
// no row are simply absent from the result.
func (r *Repo) QuantitiesByIDs(ctx context.Context, ids []int64) (map[int64]int64, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, quantity FROM product WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]int64, len(ids))
	for rows.Next() {
		var id, qty int64
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		out[id] = qty
	}
	return out, rows.Err()
}
