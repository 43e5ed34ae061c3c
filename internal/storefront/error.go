package storefront

import "errors"

var (
	ErrSessionNotStarted = errors.New("no active session, start one first")
	ErrMissingUserID     = errors.New("claims carry no user id")
)
