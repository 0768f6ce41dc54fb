package service

import (
	"context"
	"fmt"

	"github.com/mcastro/storefront/internal/core/domain"
	"github.com/mcastro/storefront/internal/port"
)

// CartService owns cart mutations. It never touches stock: adding to a
// cart records intent, it reserves nothing.
type CartService struct {
	carts port.CartRepository
}

func NewCartService(carts port.CartRepository) *CartService {
	return &CartService{carts: carts}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.carts.GetOrCreate(ctx, userID)
}

func (s *CartService) AddItem(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	cart, err := s.carts.AddLine(ctx, userID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("add line: %w", err)
	}
	return cart, nil
}

// UpdateItemQuantity sets the line exactly. A quantity of zero or below
// removes the line instead; the store never keeps a non-positive line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, error) {
	return s.carts.SetLineQuantity(ctx, userID, productID, quantity)
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, productID int64) (*domain.Cart, error) {
	return s.carts.RemoveLine(ctx, userID, productID)
}
