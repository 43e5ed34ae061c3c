// Package apierr defines the closed set of error kinds every storefront
// component reports, so callers branch on kind instead of message text.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindFailure           Kind = "failure"
	KindUnauthenticated   Kind = "unauthenticated"
	KindMerchantConflict  Kind = "merchant_conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindNetwork           Kind = "network"
	KindNotFound          Kind = "not_found"
)

// Error codes returned by the remote API in the "code" field of an error body.
const (
	CodeMerchantConflict  = "MERCHANT_CONFLICT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeOrderTerminal     = "ORDER_TERMINAL"
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeNotFound          = "NOT_FOUND"
)

var (
	ErrFailure           = errors.New("request failed")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrMerchantConflict  = errors.New("cart already holds items from another merchant")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrNetwork           = errors.New("network error")
	ErrNotFound          = errors.New("not found")
)

var sentinels = map[Kind]error{
	KindFailure:           ErrFailure,
	KindUnauthenticated:   ErrUnauthenticated,
	KindMerchantConflict:  ErrMerchantConflict,
	KindInvalidTransition: ErrInvalidTransition,
	KindNetwork:           ErrNetwork,
	KindNotFound:          ErrNotFound,
}

// MerchantConflict describes a rejected cart mutation well enough for the
// caller to offer "clear cart and retry".
type MerchantConflict struct {
	CurrentMerchantID   string `json:"currentMerchantId"`
	CurrentMerchantName string `json:"currentMerchantName,omitempty"`
	RequestedMerchantID string `json:"requestedMerchantId,omitempty"`
	ProductID           string `json:"productId"`
	Quantity            int    `json:"quantity"`
}

type Error struct {
	Kind     Kind
	Op       string
	Status   int
	Code     string
	Message  string
	Conflict *MerchantConflict
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = sentinels[e.Kind].Error()
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of err, KindFailure for foreign errors and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return KindFailure
}

// ConflictOf extracts merchant conflict details from err.
func ConflictOf(err error) (*MerchantConflict, bool) {
	var e *Error
	if errors.As(err, &e) && e.Conflict != nil {
		return e.Conflict, true
	}
	return nil, false
}

// HTTPStatus maps a kind to the status the edge API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindMerchantConflict, KindInvalidTransition:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindNetwork:
		return http.StatusBadGateway
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
