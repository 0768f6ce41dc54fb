package port

import (
	"context"

	"github.com/mcastro/storefront/internal/core/domain"
)

type CartRepository interface {
	// GetOrCreate returns the cart owned by ownerID, creating an empty
	// one on first use. Concurrent first accesses for the same owner
	// must converge on a single cart.
	GetOrCreate(ctx context.Context, ownerID string) (*domain.Cart, error)

	// AddLine merges quantity into the owner's line for productID,
	// creating the line if absent, and returns the updated cart.
	AddLine(ctx context.Context, ownerID string, productID int64, quantity int) (*domain.Cart, error)

	// SetLineQuantity overwrites an existing line's quantity. A
	// quantity of zero or below removes the line (no-op if absent); a
	// positive quantity on a line that does not exist fails with
	// domain.ErrLineNotFound.
	SetLineQuantity(ctx context.Context, ownerID string, productID int64, quantity int) (*domain.Cart, error)

	// RemoveLine deletes the line for productID. Removing an absent
	// line succeeds as a no-op.
	RemoveLine(ctx context.Context, ownerID string, productID int64) (*domain.Cart, error)

	// Clear removes every line from the owner's cart.
	Clear(ctx context.Context, ownerID string) error
}
