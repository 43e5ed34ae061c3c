package cart

import (
	"github.com/shopspring/decimal"
)

type LineItem struct {
	ProductID    string          `json:"productId"`
	Name         string          `json:"name,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	MerchantID   string          `json:"merchantId"`
	MerchantName string          `json:"merchantName"`
}

// LineTotal is the line's contribution to the subtotal, for display only.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type Discount struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// Cart is always the server's copy; totals are never derived locally.
type Cart struct {
	LineItems    []LineItem      `json:"lineItems"`
	MerchantID   string          `json:"merchantId,omitempty"`
	MerchantName string          `json:"merchantName,omitempty"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	DeliveryFee  decimal.Decimal `json:"deliveryFee"`
	Discount     *Discount       `json:"discount,omitempty"`
	Total        decimal.Decimal `json:"total"`
}

func (c *Cart) IsEmpty() bool {
	return len(c.LineItems) == 0
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, li := range c.LineItems {
		n += li.Quantity
	}
	return n
}

func (c *Cart) Find(productID string) (LineItem, bool) {
	for _, li := range c.LineItems {
		if li.ProductID == productID {
			return li, true
		}
	}
	return LineItem{}, false
}

// Validate checks the single-merchant invariant and the line item bounds.
func (c *Cart) Validate() error {
	if c.IsEmpty() {
		if c.MerchantID != "" {
			return ErrMerchantMismatch
		}
		return nil
	}

	seen := make(map[string]struct{}, len(c.LineItems))
	for _, li := range c.LineItems {
		if li.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if li.UnitPrice.IsNegative() {
			return ErrNegativePrice
		}
		if _, dup := seen[li.ProductID]; dup {
			return ErrDuplicateLineItem
		}
		seen[li.ProductID] = struct{}{}

		if li.MerchantID != c.LineItems[0].MerchantID {
			return ErrMixedMerchants
		}
	}

	if c.MerchantID != c.LineItems[0].MerchantID {
		return ErrMerchantMismatch
	}
	return nil
}
