package cart

// AddRequest adds a product to the cart
type AddRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// UpdateRequest replaces a line's quantity
type UpdateRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// LineResponse is a single cart line with the live subtotal
type LineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Stock     int    `json:"stock"`
	ImageURL  string `json:"image_url,omitempty"`
	Total     string `json:"total"`
}

// CartResponse is the full cart view
type CartResponse struct {
	Items []LineResponse `json:"items"`
	Total string         `json:"total"`
}

// ToResponse converts a cart to its API shape
func ToResponse(c *Cart) CartResponse {
	items := make([]LineResponse, 0, len(c.Lines))
	for _, line := range c.Lines {
		items = append(items, LineResponse{
			ProductID: line.ProductID.String(),
			Name:      line.Name,
			Price:     line.Price.StringFixed(2),
			Quantity:  line.Quantity,
			Stock:     line.Stock,
			ImageURL:  line.ImageURL,
			Total:     line.Total().StringFixed(2),
		})
	}
	return CartResponse{Items: items, Total: c.Total.StringFixed(2)}
}
