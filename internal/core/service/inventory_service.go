package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcastro/storefront/internal/core/domain"
	"github.com/mcastro/storefront/internal/port"
)

// InventoryService serves the non-checkout stock flows: reads (through
// an optional cache) and restocks. Checkout is the only writer that
// decrements; this service only ever raises quantities.
type InventoryService struct {
	stock port.StockRepository
	cache port.StockCache // nil disables caching
}

func NewInventoryService(stock port.StockRepository, cache port.StockCache) *InventoryService {
	return &InventoryService{stock: stock, cache: cache}
}

func (s *InventoryService) GetStock(ctx context.Context, productID int64) (int, error) {
	if s.cache != nil {
		quantity, ok, err := s.cache.GetStock(ctx, productID)
		if err != nil {
			slog.Warn("stock cache read failed", "product_id", productID, "error", err)
		} else if ok {
			return quantity, nil
		}
	}

	quantity, err := s.stock.Get(ctx, productID)
	if err != nil {
		return 0, err
	}
	s.fillCache(ctx, productID, quantity)
	return quantity, nil
}

func (s *InventoryService) Restock(ctx context.Context, productID int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	quantity, err := s.stock.Increment(ctx, productID, amount)
	if err != nil {
		return 0, fmt.Errorf("restock product %d: %w", productID, err)
	}
	s.fillCache(ctx, productID, quantity)
	return quantity, nil
}

func (s *InventoryService) fillCache(ctx context.Context, productID int64, quantity int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetStock(ctx, productID, quantity); err != nil {
		slog.Warn("stock cache write failed", "product_id", productID, "error", err)
	}
}
