package bonus

import "errors"

var (
	// ErrInsufficientBalance is returned when a debit exceeds the current balance
	ErrInsufficientBalance = errors.New("insufficient bonus balance")

	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrInvalidKind is returned for kinds other than credit/debit
	ErrInvalidKind = errors.New("invalid transaction kind")

	// ErrUserNotFound is returned when the account doesn't exist
	ErrUserNotFound = errors.New("user not found")

	ErrInternal = errors.New("internal error")
)
