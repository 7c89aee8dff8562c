package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines cart data access
type Repository interface {
	Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	View(ctx context.Context, userID uuid.UUID) ([]Line, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a cart repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Upsert adds quantity to an existing line or inserts a new one. Repeated
// adds of the same product accumulate into a single row.
func (r *repository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, uuid.New(), userID, productID, quantity)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrProductNotFound
		}
		return fmt.Errorf("cart repository: upsert: %w", err)
	}
	return nil
}

func (r *repository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items SET quantity = $3, updated_at = NOW()
		WHERE user_id = $1 AND product_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("cart repository: set quantity: %w", err)
	}
	return requireRow(result, ErrItemNotFound)
}

func (r *repository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("cart repository: remove: %w", err)
	}
	return requireRow(result, ErrItemNotFound)
}

func (r *repository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("cart repository: clear: %w", err)
	}
	return nil
}

// View joins cart rows with the catalog so the response carries current
// prices and stock, not the values at add time.
func (r *repository) View(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	lines := make([]Line, 0)
	query := `
		SELECT ci.product_id, p.name, p.price, ci.quantity, p.stock, p.image_url
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at
	`
	if err := r.db.SelectContext(ctx, &lines, query, userID); err != nil {
		return nil, fmt.Errorf("cart repository: view: %w", err)
	}
	return lines, nil
}

func requireRow(result sql.Result, missing error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cart repository: rows affected: %w", err)
	}
	if rows == 0 {
		return missing
	}
	return nil
}
