package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcastro/storefront/internal/adapter/storage"
	"github.com/mcastro/storefront/internal/core/domain"
	"github.com/mcastro/storefront/internal/core/service"
)

const (
	redisAddr    = "localhost:6379"
	productCount = 5
	initialStock = 20
	userCount    = 50
	queueSize    = 1000
)

// Fires userCount concurrent checkouts whose carts overlap on the same
// products, then verifies conservation: committed demand plus remaining
// stock must equal what was seeded.
func main() {
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	stock := storage.NewRedisAdapter(rdb)
	for p := int64(1); p <= productCount; p++ {
		if err := stock.SetStock(ctx, p, initialStock); err != nil {
			log.Fatalf("failed to set stock: %v", err)
		}
	}

	carts := storage.NewMemoryCartAdapter()
	checkout := service.NewCheckoutService(carts, stock, queueSize)
	defer checkout.Close()

	// Drain the update stream in background.
	go func() {
		for range checkout.Updates() {
		}
	}()

	// Each user wants two products; which two depends on the user, so
	// carts overlap pairwise on the shared pool.
	for i := 0; i < userCount; i++ {
		userID := fmt.Sprintf("user-%d", i)
		first := int64(i%productCount) + 1
		second := int64((i+1)%productCount) + 1
		if _, err := carts.AddLine(ctx, userID, first, 2); err != nil {
			log.Fatalf("failed to build cart: %v", err)
		}
		if _, err := carts.AddLine(ctx, userID, second, 1); err != nil {
			log.Fatalf("failed to build cart: %v", err)
		}
	}

	var successCount, soldOutCount, errorCount atomic.Int32
	var committed atomic.Int64

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < userCount; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := checkout.Checkout(ctx, fmt.Sprintf("user-%d", i))
			switch {
			case err == nil:
				successCount.Add(1)
				for _, line := range result.Lines {
					committed.Add(int64(line.Quantity))
				}
			case errors.Is(err, domain.ErrInsufficientStock):
				soldOutCount.Add(1)
			default:
				errorCount.Add(1)
				log.Printf("checkout failed: %v", err)
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	remaining := 0
	for p := int64(1); p <= productCount; p++ {
		quantity, err := stock.Get(ctx, p)
		if err != nil {
			log.Fatalf("failed to read stock: %v", err)
		}
		if quantity < 0 {
			log.Fatalf("stock went negative for product %d: %d", p, quantity)
		}
		remaining += quantity
	}

	log.Printf("checkouts: %d success, %d sold out, %d errors in %s",
		successCount.Load(), soldOutCount.Load(), errorCount.Load(), elapsed)
	log.Printf("stock: %d committed + %d remaining = %d (seeded %d)",
		committed.Load(), remaining, committed.Load()+int64(remaining), productCount*initialStock)

	if committed.Load()+int64(remaining) != productCount*initialStock {
		log.Fatal("conservation violated: committed + remaining != seeded")
	}
	log.Println("OK")
}
