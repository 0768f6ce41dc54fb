package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/mcastro/storefront/internal/core/domain"
)

const mysqlErrDuplicateEntry = 1062

// MySQLCartAdapter stores one cart per owner (unique key on owner_id)
// with one row per line (unique key on cart_id, product_id). The
// uniqueness constraints carry the concurrency guarantees: first-access
// races on cart creation collapse into a duplicate-key error followed
// by a refetch, and concurrent adds for the same line merge atomically
// in a single upsert statement.
type MySQLCartAdapter struct {
	db *sql.DB
}

func NewMySQLCartAdapter(db *sql.DB) *MySQLCartAdapter {
	return &MySQLCartAdapter{db: db}
}

func (m *MySQLCartAdapter) GetOrCreate(ctx context.Context, ownerID string) (*domain.Cart, error) {
	cartID, err := m.findCartID(ctx, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		cartID, err = m.createCart(ctx, ownerID)
	}
	if err != nil {
		return nil, err
	}
	return m.load(ctx, cartID, ownerID)
}

func (m *MySQLCartAdapter) findCartID(ctx context.Context, ownerID string) (string, error) {
	var cartID string
	err := m.db.QueryRowContext(ctx, `
		SELECT id FROM cart WHERE owner_id = ?`, ownerID,
	).Scan(&cartID)
	return cartID, err
}

func (m *MySQLCartAdapter) createCart(ctx context.Context, ownerID string) (string, error) {
	cartID := uuid.NewString()
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO cart (id, owner_id) VALUES (?, ?)`, cartID, ownerID,
	)

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
		// Lost the first-access race; the winner's cart stands.
		return m.findCartID(ctx, ownerID)
	}
	if err != nil {
		return "", fmt.Errorf("insert cart: %w", err)
	}
	return cartID, nil
}

func (m *MySQLCartAdapter) load(ctx context.Context, cartID, ownerID string) (*domain.Cart, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, quantity FROM cart_item WHERE cart_id = ?`, cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	cart := domain.NewCart(cartID, ownerID)
	for rows.Next() {
		var productID int64
		var quantity int
		if err := rows.Scan(&productID, &quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Lines[productID] = quantity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return cart, nil
}

func (m *MySQLCartAdapter) AddLine(ctx context.Context, ownerID string, productID int64, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	cart, err := m.GetOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO cart_item (cart_id, product_id, quantity) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
		cart.ID, productID, quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}

	return m.load(ctx, cart.ID, ownerID)
}

func (m *MySQLCartAdapter) SetLineQuantity(ctx context.Context, ownerID string, productID int64, quantity int) (*domain.Cart, error) {
	cart, err := m.GetOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		_, err := m.db.ExecContext(ctx, `
			DELETE FROM cart_item WHERE cart_id = ? AND product_id = ?`,
			cart.ID, productID,
		)
		if err != nil {
			return nil, fmt.Errorf("delete cart item: %w", err)
		}
		return m.load(ctx, cart.ID, ownerID)
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE cart_item SET quantity = ? WHERE cart_id = ? AND product_id = ?`,
		quantity, cart.ID, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// MySQL also reports zero rows when the stored value already
		// equals quantity, so confirm the line is actually missing.
		var exists int
		err := m.db.QueryRowContext(ctx, `
			SELECT 1 FROM cart_item WHERE cart_id = ? AND product_id = ?`,
			cart.ID, productID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLineNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("query cart item: %w", err)
		}
	}

	return m.load(ctx, cart.ID, ownerID)
}

func (m *MySQLCartAdapter) RemoveLine(ctx context.Context, ownerID string, productID int64) (*domain.Cart, error) {
	cart, err := m.GetOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	_, err = m.db.ExecContext(ctx, `
		DELETE FROM cart_item WHERE cart_id = ? AND product_id = ?`,
		cart.ID, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("delete cart item: %w", err)
	}

	return m.load(ctx, cart.ID, ownerID)
}

func (m *MySQLCartAdapter) Clear(ctx context.Context, ownerID string) error {
	cartID, err := m.findCartID(ctx, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query cart: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		DELETE FROM cart_item WHERE cart_id = ?`, cartID,
	)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
