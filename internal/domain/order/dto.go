package order

import "time"

// UpdateStatusRequest is the admin payload for a lifecycle move
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,order_status"`
}

// PaymentRequest optionally overrides the post-payment redirect
type PaymentRequest struct {
	ReturnURL string `json:"return_url,omitempty" validate:"omitempty,url"`
}

// OrderResponse is the API shape of an order
type OrderResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Total      string    `json:"total"`
	Status     Status    `json:"status"`
	PaymentID  string    `json:"payment_id,omitempty"`
	PaymentURL string    `json:"payment_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToResponse converts an order to its API shape
func ToResponse(o *Order) OrderResponse {
	resp := OrderResponse{
		ID:        o.ID.String(),
		UserID:    o.UserID.String(),
		Total:     o.TotalAmount.StringFixed(2),
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
	if o.PaymentID.Valid {
		resp.PaymentID = o.PaymentID.String
	}
	if o.PaymentURL.Valid {
		resp.PaymentURL = o.PaymentURL.String
	}
	return resp
}

// ToResponseList converts a slice of orders
func ToResponseList(orders []Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToResponse(&orders[i]))
	}
	return out
}
