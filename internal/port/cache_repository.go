package port

import "context"

type StockCache interface {
	// GetStock reads a cached quantity. ok is false on a cache miss.
	GetStock(ctx context.Context, productID int64) (quantity int, ok bool, err error)

	// SetStock writes a quantity into the cache.
	SetStock(ctx context.Context, productID int64, quantity int) error
}
