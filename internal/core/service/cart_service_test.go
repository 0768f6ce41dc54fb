package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mcastro/storefront/internal/adapter/storage"
	"github.com/mcastro/storefront/internal/core/domain"
)

func newCartService() *CartService {
	return NewCartService(storage.NewMemoryCartAdapter())
}

func TestAddItem_MergesQuantities(t *testing.T) {
	svc := newCartService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "user-1", 7, 2); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	cart, err := svc.AddItem(ctx, "user-1", 7, 3)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	if cart.Lines[7] != 5 {
		t.Errorf("expected quantity 5, got %d", cart.Lines[7])
	}
}

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	svc := newCartService()
	ctx := context.Background()

	for _, quantity := range []int{0, -1} {
		if _, err := svc.AddItem(ctx, "user-1", 7, quantity); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Errorf("quantity %d: expected ErrInvalidQuantity, got %v", quantity, err)
		}
	}

	cart, err := svc.GetCart(ctx, "user-1")
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if !cart.Empty() {
		t.Error("rejected add must not change the cart")
	}
}

func TestUpdateItemQuantity_SetsExactly(t *testing.T) {
	svc := newCartService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "user-1", 7, 4); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	cart, err := svc.UpdateItemQuantity(ctx, "user-1", 7, 2)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if cart.Lines[7] != 2 {
		t.Errorf("expected quantity 2 (not additive), got %d", cart.Lines[7])
	}
}

func TestUpdateItemQuantity_RemovesLineAtZeroOrBelow(t *testing.T) {
	svc := newCartService()
	ctx := context.Background()

	for _, quantity := range []int{0, -3} {
		if _, err := svc.AddItem(ctx, "user-1", 7, 4); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		cart, err := svc.UpdateItemQuantity(ctx, "user-1", 7, quantity)
		if err != nil {
			t.Fatalf("update to %d failed: %v", quantity, err)
		}
		if _, ok := cart.Lines[7]; ok {
			t.Errorf("update to %d must remove the line", quantity)
		}
	}
}

func TestUpdateItemQuantity_UnknownLine(t *testing.T) {
	svc := newCartService()
	ctx := context.Background()

	if _, err := svc.UpdateItemQuantity(ctx, "user-1", 7, 3); !errors.Is(err, domain.ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got %v", err)
	}

	// A non-positive quantity on an absent line is a no-op, not an error.
	if _, err := svc.UpdateItemQuantity(ctx, "user-1", 7, 0); err != nil {
		t.Errorf("zero quantity on absent line should be a no-op, got %v", err)
	}
}

func TestRemoveItem_Idempotent(t *testing.T) {
	svc := newCartService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "user-1", 7, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	cart, err := svc.RemoveItem(ctx, "user-1", 99)
	if err != nil {
		t.Fatalf("removing an absent line must succeed, got %v", err)
	}
	if cart.Lines[7] != 2 {
		t.Error("removing an absent line must leave other lines untouched")
	}

	if _, err := svc.RemoveItem(ctx, "user-1", 7); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	cart, err = svc.RemoveItem(ctx, "user-1", 7)
	if err != nil {
		t.Fatalf("second remove must succeed, got %v", err)
	}
	if !cart.Empty() {
		t.Error("expected empty cart")
	}
}

func TestGetCart_ConcurrentFirstAccessCreatesOneCart(t *testing.T) {
	svc := newCartService()
	ctx := context.Background()

	const callers = 20
	ids := make([]string, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cart, err := svc.GetCart(ctx, "user-1")
			if err != nil {
				t.Errorf("get cart failed: %v", err)
				return
			}
			ids[i] = cart.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("caller %d observed a different cart: %s != %s", i, ids[i], ids[0])
		}
	}
}
