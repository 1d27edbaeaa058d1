package models

import "errors"

// Domain errors returned by services and repositories. Controllers translate
// these to HTTP status codes; nothing below the controller layer knows about HTTP.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidQuantity        = errors.New("quantity must be a positive integer")
	ErrProductNotPurchasable  = errors.New("product is a variant parent and cannot be purchased")
	ErrForbidden              = errors.New("not authorized to access this resource")
	ErrOutOfStock             = errors.New("insufficient stock")
	ErrConflictRetryExhausted = errors.New("conflicting writes, retries exhausted")

	// ErrDuplicateKey signals a unique-constraint violation to the retry loop in
	// the cart service. It never crosses the service boundary.
	ErrDuplicateKey = errors.New("duplicate key")
)
