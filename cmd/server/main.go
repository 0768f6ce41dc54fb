package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/mcastro/storefront/internal/adapter/handler"
	"github.com/mcastro/storefront/internal/adapter/storage"
	"github.com/mcastro/storefront/internal/core/domain"
	"github.com/mcastro/storefront/internal/core/service"
	"github.com/mcastro/storefront/internal/port"
	"github.com/mcastro/storefront/pkg/config"
	"github.com/mcastro/storefront/pkg/logger"
	"github.com/mcastro/storefront/pkg/metrics"
	"github.com/mcastro/storefront/pkg/shutdown"
)

func main() {
	cfg := config.Load()
	logger.New(logger.Options{Service: "storefront", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping mysql: %w", err)
	}
	slog.Info("connected to mysql")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("connected to redis")

	redisAdapter := storage.NewRedisAdapter(rdb)
	stockAdapter := storage.NewMySQLStockAdapter(db)
	cartAdapter := storage.NewMySQLCartAdapter(db)

	cartService := service.NewCartService(cartAdapter)
	checkoutService := service.NewCheckoutService(cartAdapter, stockAdapter, cfg.QueueSize)
	inventoryService := service.NewInventoryService(stockAdapter, redisAdapter)

	// Workers push committed stock levels into the Redis read cache.
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			cacheRefreshLoop(id, checkoutService.Updates(), redisAdapter)
		}(i)
	}
	slog.Info("started cache refresh workers", "count", cfg.WorkerCount)

	m := metrics.NewServerMetrics("api")
	httpHandler := handler.NewHTTPHandler(cartService, checkoutService, inventoryService, m)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: handler.NewRouter(httpHandler, m),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	checkoutService.Close()
	wg.Wait()
	slog.Info("workers stopped")

	return err
}

func cacheRefreshLoop(id int, updates <-chan domain.StockUpdate, cache port.StockCache) {
	for update := range updates {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := cache.SetStock(ctx, update.ProductID, update.Available); err != nil {
			slog.Error("cache refresh failed",
				"worker", id, "product_id", update.ProductID, "error", err)
		}
		cancel()
	}
}
