package guestcart

import "errors"

var (
	// Input
	ErrMissingGuestID   = errors.New("guest id is required")
	ErrMissingProductID = errors.New("product id is required")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")

	// Storage
	ErrRecordNotFound  = errors.New("guest cart record not found")
	ErrUnknownVersion  = errors.New("unknown guest cart format version")
	ErrCorruptedRecord = errors.New("guest cart record is corrupted")
)
