package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mcastro/storefront/internal/core/domain"
)

// MySQLStockAdapter is the durable stock ledger. Decrements use
// optimistic locking: read the row, check sufficiency, then update
// guarded by the version column. A lost race reports
// domain.ErrTransientContention so the caller can retry instead of
// mistaking contention for an empty shelf.
type MySQLStockAdapter struct {
	db *sql.DB
}

func NewMySQLStockAdapter(db *sql.DB) *MySQLStockAdapter {
	return &MySQLStockAdapter{db: db}
}

func (m *MySQLStockAdapter) Get(ctx context.Context, productID int64) (int, error) {
	var quantity int
	err := m.db.QueryRowContext(ctx, `
		SELECT quantity FROM stock WHERE product_id = ?`, productID,
	).Scan(&quantity)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}
	return quantity, nil
}

func (m *MySQLStockAdapter) TryDecrement(ctx context.Context, productID int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	var quantity, version int
	err := m.db.QueryRowContext(ctx, `
		SELECT quantity, version FROM stock WHERE product_id = ?`, productID,
	).Scan(&quantity, &version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}

	if quantity < amount {
		return 0, domain.ErrInsufficientStock
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE stock
		SET quantity = quantity - ?, version = version + 1, updated_at = NOW()
		WHERE product_id = ? AND version = ?`,
		amount, productID, version,
	)
	if err != nil {
		return 0, fmt.Errorf("update stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, domain.ErrTransientContention
	}

	return quantity - amount, nil
}

func (m *MySQLStockAdapter) Increment(ctx context.Context, productID int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE stock
		SET quantity = quantity + ?, version = version + 1, updated_at = NOW()
		WHERE product_id = ?`,
		amount, productID,
	)
	if err != nil {
		return 0, fmt.Errorf("update stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, domain.ErrProductNotFound
	}

	return m.Get(ctx, productID)
}

func (m *MySQLStockAdapter) SetStock(ctx context.Context, productID int64, quantity int) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO stock (product_id, quantity, version) VALUES (?, ?, 0)
		ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), version = version + 1`,
		productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}
