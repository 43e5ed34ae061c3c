package cart

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidQuantity  = errors.New("invalid cart quantity")
	ErrMissingProductID = errors.New("product ID is required")
	ErrMissingCode      = errors.New("discount code is required")

	// -- Resource State --
	ErrMixedMerchants    = errors.New("cart holds items from more than one merchant")
	ErrMerchantMismatch  = errors.New("cart merchant does not match its line items")
	ErrDuplicateLineItem = errors.New("cart holds a product more than once")
	ErrNegativePrice     = errors.New("cart line item has a negative price")
)
