package port

import "context"

type StockRepository interface {
	// Get returns the available quantity for productID, or
	// domain.ErrProductNotFound.
	Get(ctx context.Context, productID int64) (int, error)

	// TryDecrement atomically decreases the product's quantity only if
	// at least amount is available, and returns the remaining quantity.
	// Fails with domain.ErrInsufficientStock when stock is short,
	// domain.ErrProductNotFound for an unknown product, and
	// domain.ErrTransientContention when a concurrent writer won the
	// race on an optimistic implementation (the caller retries).
	TryDecrement(ctx context.Context, productID int64, amount int) (int, error)

	// Increment restocks unconditionally and returns the new quantity.
	// It is also checkout's rollback primitive: undoing a decrement is
	// an increment of the same amount.
	Increment(ctx context.Context, productID int64, amount int) (int, error)

	// SetStock creates or overwrites the product's stock record.
	SetStock(ctx context.Context, productID int64, quantity int) error
}
