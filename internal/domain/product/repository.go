package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines catalog data access
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, pagination Pagination) ([]Product, int, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a catalog repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const productColumns = `id, name, price, description, stock, image_url, created_at, updated_at`

func (r *repository) Create(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (id, name, price, description, stock, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Price, p.Description, p.Stock, p.ImageURL,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("product repository: create: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("product repository: get: %w", err)
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, pagination Pagination) ([]Product, int, error) {
	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products`); err != nil {
		return nil, 0, fmt.Errorf("product repository: count: %w", err)
	}

	products := make([]Product, 0)
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`, productColumns)
	if err := r.db.SelectContext(ctx, &products, query, limit, pagination.Offset); err != nil {
		return nil, 0, fmt.Errorf("product repository: list: %w", err)
	}
	return products, total, nil
}

// Update applies only the fields present in the request and returns the
// updated row.
func (r *repository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Product, error) {
	if fields.Empty() {
		return nil, ErrNothingToUpdate
	}

	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	args = append(args, id)
	idx := 2

	if fields.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *fields.Name)
		idx++
	}
	if fields.Price != nil {
		sets = append(sets, fmt.Sprintf("price = $%d", idx))
		args = append(args, *fields.Price)
		idx++
	}
	if fields.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", idx))
		args = append(args, *fields.Description)
		idx++
	}
	if fields.Stock != nil {
		sets = append(sets, fmt.Sprintf("stock = $%d", idx))
		args = append(args, *fields.Stock)
		idx++
	}
	if fields.ImageURL != nil {
		sets = append(sets, fmt.Sprintf("image_url = $%d", idx))
		args = append(args, *fields.ImageURL)
		idx++
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(sets, ", "), productColumns)

	var p Product
	err := r.db.GetContext(ctx, &p, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("product repository: update: %w", err)
	}
	return &p, nil
}

// Delete removes a product; cart lines referencing it are removed by the
// ON DELETE CASCADE constraint.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("product repository: delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("product repository: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET image_url = $2, updated_at = NOW() WHERE id = $1`, id, imageURL)
	if err != nil {
		return fmt.Errorf("product repository: set image url: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("product repository: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrProductNotFound
	}
	return nil
}
