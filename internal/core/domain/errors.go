package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrLineNotFound        = errors.New("cart line not found")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrTransientContention = errors.New("lost update race, retry")
)

// StockError names the product a checkout failed on. It wraps one of
// ErrProductNotFound, ErrInsufficientStock or ErrTransientContention.
type StockError struct {
	ProductID int64
	Err       error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("product %d: %v", e.ProductID, e.Err)
}

func (e *StockError) Unwrap() error {
	return e.Err
}
