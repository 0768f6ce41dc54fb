package domain

import "time"

type StockRecord struct {
	ProductID int64
	Available int
	Version   int // optimistic locking
	UpdatedAt time.Time
}

// StockUpdate describes a committed change to a product's available
// quantity. Checkout publishes one per decremented product so read
// caches can be refreshed asynchronously.
type StockUpdate struct {
	ProductID int64
	Available int
}
