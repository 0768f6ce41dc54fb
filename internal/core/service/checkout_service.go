package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcastro/storefront/internal/core/domain"
	"github.com/mcastro/storefront/internal/port"
)

// maxDecrementAttempts bounds the retries when a conditional decrement
// loses an optimistic-locking race. Exhaustion surfaces as
// domain.ErrTransientContention, which the caller may retry whole;
// losing the race is not the same thing as being out of stock.
const maxDecrementAttempts = 5

// CheckoutService converts a cart's intent into committed stock
// decrements: all lines succeed, or every decrement already applied is
// undone and the cart is left untouched.
type CheckoutService struct {
	carts   port.CartRepository
	stock   port.StockRepository
	updates chan domain.StockUpdate
}

func NewCheckoutService(carts port.CartRepository, stock port.StockRepository, queueSize int) *CheckoutService {
	return &CheckoutService{
		carts:   carts,
		stock:   stock,
		updates: make(chan domain.StockUpdate, queueSize),
	}
}

type appliedDecrement struct {
	productID int64
	amount    int
	remaining int
}

func (s *CheckoutService) Checkout(ctx context.Context, userID string) (*domain.CheckoutResult, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.Empty() {
		return nil, domain.ErrEmptyCart
	}

	// Decrement in ascending product order. Every concurrent checkout
	// walks products in this same order, so two checkouts sharing
	// products can never each hold one and wait on the other.
	lines := cart.SortedLines()

	applied := make([]appliedDecrement, 0, len(lines))
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			s.rollback(ctx, applied)
			return nil, err
		}

		remaining, err := s.decrementWithRetry(ctx, line.ProductID, line.Quantity)
		if err != nil {
			s.rollback(ctx, applied)
			if errors.Is(err, domain.ErrInsufficientStock) ||
				errors.Is(err, domain.ErrProductNotFound) ||
				errors.Is(err, domain.ErrTransientContention) {
				return nil, &domain.StockError{ProductID: line.ProductID, Err: err}
			}
			return nil, fmt.Errorf("decrement product %d: %w", line.ProductID, err)
		}
		applied = append(applied, appliedDecrement{
			productID: line.ProductID,
			amount:    line.Quantity,
			remaining: remaining,
		})
	}

	// Clear only after every decrement committed. A failed clear takes
	// the same rollback path so stock and cart never disagree.
	if err := s.carts.Clear(ctx, cart.OwnerID); err != nil {
		s.rollback(ctx, applied)
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	for _, a := range applied {
		s.updates <- domain.StockUpdate{ProductID: a.productID, Available: a.remaining}
	}

	slog.Info("checkout committed", "user_id", userID, "lines", len(lines))
	return &domain.CheckoutResult{CartID: cart.ID, Lines: lines}, nil
}

func (s *CheckoutService) decrementWithRetry(ctx context.Context, productID int64, amount int) (int, error) {
	var err error
	for attempt := 0; attempt < maxDecrementAttempts; attempt++ {
		var remaining int
		remaining, err = s.stock.TryDecrement(ctx, productID, amount)
		if err == nil {
			return remaining, nil
		}
		if !errors.Is(err, domain.ErrTransientContention) {
			return 0, err
		}
	}
	return 0, err
}

// rollback undoes already-applied decrements in reverse order. It runs
// on a context detached from the caller's so a cancelled checkout can
// still restore stock.
func (s *CheckoutService) rollback(ctx context.Context, applied []appliedDecrement) {
	ctx = context.WithoutCancel(ctx)
	for i := len(applied) - 1; i >= 0; i-- {
		a := applied[i]
		if _, err := s.stock.Increment(ctx, a.productID, a.amount); err != nil {
			slog.Error("CRITICAL: stock rollback failed",
				"product_id", a.productID, "amount", a.amount, "error", err)
		}
	}
}

// Updates streams committed stock changes for cache refresh.
func (s *CheckoutService) Updates() <-chan domain.StockUpdate {
	return s.updates
}

func (s *CheckoutService) Close() {
	close(s.updates)
}
