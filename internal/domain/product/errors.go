package product

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("invalid price: must not be negative")
	ErrInvalidStock    = errors.New("invalid stock: must not be negative")
	ErrNothingToUpdate = errors.New("nothing to update")
)
