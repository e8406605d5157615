package domain

import "errors"

// Business failure kinds. Callers wrap these with fmt.Errorf("%w: ...")
// to attach the offending identifiers and quantities; the HTTP layer maps
// each kind to a status code with errors.Is.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicateResource = errors.New("duplicate resource")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("shopping cart is empty")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrUnauthorized      = errors.New("unauthorized access")
	ErrValidation        = errors.New("validation failed")
)
