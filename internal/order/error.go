package order

import "errors"

var (
	// Input
	ErrMissingOrderID = errors.New("order id is required")
	ErrUnknownStatus  = errors.New("unknown order status")

	// Transitions
	ErrTerminalStatus    = errors.New("order is already in a terminal status")
	ErrUnreachableStatus = errors.New("status is not reachable from the current status")
	ErrRoleNotAllowed    = errors.New("role may not request this transition")
)
