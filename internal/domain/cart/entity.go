package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is a cart row joined with the live product, so prices and
// availability reflect the catalog at read time.
type Line struct {
	ProductID uuid.UUID       `db:"product_id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Quantity  int             `db:"quantity"`
	Stock     int             `db:"stock"`
	ImageURL  string          `db:"image_url"`
}

// Total is the line subtotal at the current catalog price
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the user's cart with totals computed from live prices
type Cart struct {
	Lines []Line
	Total decimal.Decimal
}
