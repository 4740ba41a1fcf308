package domain

import "errors"

// Sentinel errors for the whole storefront. They are wrapped with
// fmt.Errorf("%w: ...") at the point of detection and mapped to HTTP status
// codes in one place by the http server.
var (
	ErrValidation        = errors.New("validation")         // 400
	ErrEmptyCart         = errors.New("cart is empty")      // 400
	ErrInsufficientStock = errors.New("insufficient stock") // 400
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyDelivered  = errors.New("order already delivered")

	ErrUnauthenticated = errors.New("unauthenticated") // 401
	ErrForbidden       = errors.New("forbidden")       // 403

	ErrNotFound        = errors.New("not found") // 404
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")

	ErrConflict         = errors.New("conflict")          // 409
	ErrStoreUnavailable = errors.New("store unavailable") // 503
)
