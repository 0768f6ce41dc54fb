package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mcastro/storefront/internal/core/domain"
)

// MemoryStockAdapter is a mutex-guarded in-memory stock ledger. The
// conditional decrement runs under the lock, so it never reports
// contention. Used by the stress driver and in tests.
type MemoryStockAdapter struct {
	mu    sync.Mutex
	stock map[int64]int
}

func NewMemoryStockAdapter() *MemoryStockAdapter {
	return &MemoryStockAdapter{stock: make(map[int64]int)}
}

func (m *MemoryStockAdapter) Get(ctx context.Context, productID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	quantity, ok := m.stock[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return quantity, nil
}

func (m *MemoryStockAdapter) TryDecrement(ctx context.Context, productID int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	quantity, ok := m.stock[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	if quantity < amount {
		return 0, domain.ErrInsufficientStock
	}
	m.stock[productID] = quantity - amount
	return quantity - amount, nil
}

func (m *MemoryStockAdapter) Increment(ctx context.Context, productID int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	quantity, ok := m.stock[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	m.stock[productID] = quantity + amount
	return quantity + amount, nil
}

func (m *MemoryStockAdapter) SetStock(ctx context.Context, productID int64, quantity int) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[productID] = quantity
	return nil
}

// MemoryCartAdapter keeps carts in a map under a single mutex, which
// also serializes same-user mutations so concurrent merge-adds cannot
// lose updates. Returned carts are clones; callers never see live
// state.
type MemoryCartAdapter struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func NewMemoryCartAdapter() *MemoryCartAdapter {
	return &MemoryCartAdapter{carts: make(map[string]*domain.Cart)}
}

// cart returns the live cart for ownerID, creating it on first access.
// Callers must hold the mutex.
func (m *MemoryCartAdapter) cart(ownerID string) *domain.Cart {
	c, ok := m.carts[ownerID]
	if !ok {
		c = domain.NewCart(uuid.NewString(), ownerID)
		m.carts[ownerID] = c
	}
	return c
}

func (m *MemoryCartAdapter) GetOrCreate(ctx context.Context, ownerID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart(ownerID).Clone(), nil
}

func (m *MemoryCartAdapter) AddLine(ctx context.Context, ownerID string, productID int64, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.cart(ownerID)
	c.Add(productID, quantity)
	return c.Clone(), nil
}

func (m *MemoryCartAdapter) SetLineQuantity(ctx context.Context, ownerID string, productID int64, quantity int) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.cart(ownerID)
	if !c.Set(productID, quantity) && quantity > 0 {
		return nil, domain.ErrLineNotFound
	}
	return c.Clone(), nil
}

func (m *MemoryCartAdapter) RemoveLine(ctx context.Context, ownerID string, productID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.cart(ownerID)
	c.Remove(productID)
	return c.Clone(), nil
}

func (m *MemoryCartAdapter) Clear(ctx context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cart(ownerID).Clear()
	return nil
}
