package tests

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mcastro/storefront/internal/adapter/storage"
	"github.com/mcastro/storefront/internal/core/domain"
	"github.com/mcastro/storefront/internal/core/service"
)

type testEnv struct {
	redis    *redis.Client
	mysql    *sql.DB
	cache    *storage.RedisAdapter
	stock    *storage.MySQLStockAdapter
	carts    *storage.MySQLCartAdapter
	checkout *service.CheckoutService
	cleanup  func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/storefront?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	carts := storage.NewMySQLCartAdapter(db)
	stock := storage.NewMySQLStockAdapter(db)
	checkout := service.NewCheckoutService(carts, stock, 1000)
	go func() {
		for range checkout.Updates() {
		}
	}()

	return &testEnv{
		redis:    rdb,
		mysql:    db,
		cache:    storage.NewRedisAdapter(rdb),
		stock:    stock,
		carts:    carts,
		checkout: checkout,
		cleanup: func() {
			checkout.Close()
			rdb.Close()
			db.Close()
		},
	}
}

func TestIntegration_FullCheckoutFlow(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	const productID = int64(42)
	userID := "integration-" + uuid.NewString()

	if err := env.stock.SetStock(ctx, productID, 10); err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	if _, err := env.carts.AddLine(ctx, userID, productID, 4); err != nil {
		t.Fatalf("add line: %v", err)
	}

	result, err := env.checkout.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0].Quantity != 4 {
		t.Errorf("unexpected checkout result: %+v", result.Lines)
	}

	quantity, err := env.stock.Get(ctx, productID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if quantity != 6 {
		t.Errorf("expected stock 6, got %d", quantity)
	}

	cart, err := env.carts.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("read cart: %v", err)
	}
	if !cart.Empty() {
		t.Error("expected cart emptied by checkout")
	}
}

func TestIntegration_ContendedCheckout(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	const productID = int64(43)
	userA := "contend-a-" + uuid.NewString()
	userB := "contend-b-" + uuid.NewString()

	if err := env.stock.SetStock(ctx, productID, 5); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	if _, err := env.carts.AddLine(ctx, userA, productID, 3); err != nil {
		t.Fatalf("add line: %v", err)
	}
	if _, err := env.carts.AddLine(ctx, userB, productID, 3); err != nil {
		t.Fatalf("add line: %v", err)
	}

	var successCount, soldOutCount atomic.Int32
	var wg sync.WaitGroup
	for _, userID := range []string{userA, userB} {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := env.checkout.Checkout(ctx, userID)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				soldOutCount.Add(1)
			default:
				t.Errorf("unexpected checkout error: %v", err)
			}
		}(userID)
	}
	wg.Wait()

	if successCount.Load() != 1 || soldOutCount.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d sold-out",
			successCount.Load(), soldOutCount.Load())
	}

	quantity, err := env.stock.Get(ctx, productID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if quantity != 2 {
		t.Errorf("expected stock 2, got %d", quantity)
	}
}

func TestIntegration_RedisCacheRefresh(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	const productID = int64(44)

	if err := env.cache.SetStock(ctx, productID, 9); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	quantity, ok, err := env.cache.GetStock(ctx, productID)
	if err != nil || !ok {
		t.Fatalf("cache read: ok=%v err=%v", ok, err)
	}
	if quantity != 9 {
		t.Errorf("expected 9, got %d", quantity)
	}

	inventory := service.NewInventoryService(env.stock, env.cache)
	if err := env.stock.SetStock(ctx, productID, 20); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	if _, err := inventory.Restock(ctx, productID, 5); err != nil {
		t.Fatalf("restock: %v", err)
	}

	quantity, ok, err = env.cache.GetStock(ctx, productID)
	if err != nil || !ok {
		t.Fatalf("cache read: ok=%v err=%v", ok, err)
	}
	if quantity != 25 {
		t.Errorf("expected cache refreshed to 25, got %d", quantity)
	}
}
