package storage

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mcastro/storefront/internal/core/domain"
)

const stockKeyPrefix = "stock:"

// decrementStockScript returns -2 for an unknown product, -1 when stock
// is short, and otherwise the remaining quantity after the decrement.
// The script runs atomically, so check and decrement cannot interleave
// with another writer on the same key.
var decrementStockScript = redis.NewScript(`
local key = KEYS[1]
local amount = tonumber(ARGV[1])

local current = redis.call('GET', key)
if not current then
	return -2
end

current = tonumber(current)
if current < amount then
	return -1
end

return redis.call('DECRBY', key, amount)
`)

var incrementStockScript = redis.NewScript(`
local key = KEYS[1]
local amount = tonumber(ARGV[1])

if not redis.call('GET', key) then
	return -2
end

return redis.call('INCRBY', key, amount)
`)

// RedisAdapter keeps per-product quantities as plain integer keys. It
// serves both as a stock repository (scripted conditional decrement)
// and as the read cache refreshed after checkouts.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func stockKey(productID int64) string {
	return stockKeyPrefix + strconv.FormatInt(productID, 10)
}

func (r *RedisAdapter) Get(ctx context.Context, productID int64) (int, error) {
	quantity, err := r.client.Get(ctx, stockKey(productID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, err
	}
	return quantity, nil
}

func (r *RedisAdapter) TryDecrement(ctx context.Context, productID int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	result, err := decrementStockScript.Run(ctx, r.client, []string{stockKey(productID)}, amount).Int()
	if err != nil {
		return 0, err
	}
	switch result {
	case -2:
		return 0, domain.ErrProductNotFound
	case -1:
		return 0, domain.ErrInsufficientStock
	default:
		return result, nil
	}
}

func (r *RedisAdapter) Increment(ctx context.Context, productID int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	result, err := incrementStockScript.Run(ctx, r.client, []string{stockKey(productID)}, amount).Int()
	if err != nil {
		return 0, err
	}
	if result == -2 {
		return 0, domain.ErrProductNotFound
	}
	return result, nil
}

func (r *RedisAdapter) SetStock(ctx context.Context, productID int64, quantity int) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	return r.client.Set(ctx, stockKey(productID), quantity, 0).Err()
}

// GetStock implements the cache read; a missing key is a miss, not an
// error.
func (r *RedisAdapter) GetStock(ctx context.Context, productID int64) (int, bool, error) {
	quantity, err := r.client.Get(ctx, stockKey(productID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return quantity, true, nil
}
