package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyPaid       = errors.New("order is already paid")
	ErrOrderCancelled    = errors.New("order is cancelled")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidWebhook    = errors.New("invalid payment notification")
)
