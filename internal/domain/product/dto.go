package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateRequest is the admin payload for a new product
type CreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Price       string `json:"price" validate:"required"`
	Description string `json:"description" validate:"max=5000"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

// UpdateRequest carries a partial product update; nil fields are left alone
type UpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Price       *string `json:"price,omitempty"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Stock       *int    `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

// ProductResponse is the public product view
type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       string    `json:"price"`
	Description string    `json:"description"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToResponse converts an entity to its API shape
func ToResponse(p *Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Price:       p.Price.StringFixed(2),
		Description: p.Description,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToResponseList converts a slice of entities
func ToResponseList(products []Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToResponse(&products[i]))
	}
	return out
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrInvalidPrice
	}
	if price.IsNegative() {
		return decimal.Zero, ErrInvalidPrice
	}
	return price, nil
}
