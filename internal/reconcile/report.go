package reconcile

import (
	"fmt"

	"storefront-core/internal/apierr"
	"storefront-core/internal/cart"
	"storefront-core/internal/guestcart"

	"go.uber.org/multierr"
)

type Status string

const (
	// StatusNoop: the guest cart was empty, nothing was sent.
	StatusNoop Status = "noop"
	// StatusComplete: every guest item reached the server cart.
	StatusComplete Status = "complete"
	// StatusPartial: the pass completed but dropped at least one item.
	StatusPartial Status = "partial"
	// StatusFailed: the pass was aborted and the guest cart kept.
	StatusFailed Status = "failed"
)

// Dropped is a guest item the server cart did not take.
type Dropped struct {
	ProductID string                   `json:"productId"`
	Quantity  int                      `json:"quantity"`
	Kind      apierr.Kind              `json:"kind"`
	Conflict  *apierr.MerchantConflict `json:"conflict,omitempty"`
	Err       error                    `json:"-"`
}

// Report is the single outcome of one reconciliation pass.
type Report struct {
	GuestID string           `json:"-"`
	Status  Status           `json:"status"`
	Merged  []guestcart.Item `json:"merged"`
	Dropped []Dropped        `json:"dropped"`
	Cart    *cart.Cart       `json:"cart,omitempty"`
	Cleared bool             `json:"cleared"`
}

// Err combines the per-item failures, nil when nothing was dropped.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	var err error
	for _, d := range r.Dropped {
		err = multierr.Append(err, fmt.Errorf("%s: %w", d.ProductID, d.Err))
	}
	return err
}

func (r *Report) settle() {
	switch {
	case len(r.Merged) == 0 && len(r.Dropped) == 0:
		r.Status = StatusNoop
	case len(r.Dropped) == 0:
		r.Status = StatusComplete
	default:
		r.Status = StatusPartial
	}
}

// Message is the user-facing summary of the report.
func (r *Report) Message() string {
	switch r.Status {
	case StatusNoop:
		return ""
	case StatusComplete:
		return fmt.Sprintf("Added %d item(s) from your guest cart.", len(r.Merged))
	case StatusPartial:
		if len(r.Merged) == 0 {
			return fmt.Sprintf("None of the %d item(s) in your guest cart could be added.", len(r.Dropped))
		}
		return fmt.Sprintf("Added %d item(s) from your guest cart; %d could not be added.", len(r.Merged), len(r.Dropped))
	default:
		return "Your guest cart could not be merged yet; it will be retried on your next login."
	}
}
