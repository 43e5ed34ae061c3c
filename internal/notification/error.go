package notification

import "errors"

var (
	ErrMissingID      = errors.New("notification id is required")
	ErrInvalidPage    = errors.New("page and limit must be positive")
	ErrPushNotEnabled = errors.New("push channel url is not configured")
)
