package redisx

import "time"

const (
	// Product quantity cache: product:qty:{product_id} -> int quantity.
	KeyProductQty = "product:qty:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

// QtyNotFound is the cached value for a product id that does not exist in the
// store. Kept on a short TTL so absence stays cheap to answer without pinning
// a wrong entry if the row appears later.
const QtyNotFound int64 = -1

var (
	// TTLQuantity bounds positive entries; a missed invalidation heals itself.
	TTLQuantity = 10 * time.Minute
	// TTLNegative bounds not-found entries.
	TTLNegative = 45 * time.Second

	TTLDedup = 48 * time.Hour
)
