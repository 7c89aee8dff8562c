package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog item
type Product struct {
	ID          uuid.UUID       `db:"id"`
	Name        string          `db:"name"`
	Price       decimal.Decimal `db:"price"`
	Description string          `db:"description"`
	Stock       int             `db:"stock"`
	ImageURL    string          `db:"image_url"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// UpdateFields carries a partial update; nil fields are left unchanged
type UpdateFields struct {
	Name        *string
	Price       *decimal.Decimal
	Description *string
	Stock       *int
	ImageURL    *string
}

// Empty reports whether the update carries no changes
func (u UpdateFields) Empty() bool {
	return u.Name == nil && u.Price == nil && u.Description == nil && u.Stock == nil && u.ImageURL == nil
}

// Pagination controls catalog listing
type Pagination struct {
	Limit  int
	Offset int
}
