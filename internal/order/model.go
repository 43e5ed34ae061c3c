package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusRejected       Status = "rejected"
)

type StatusChange struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// LineItem is the order's copy of a cart line; it never follows the live cart.
type LineItem struct {
	ProductID    string          `json:"productId"`
	Name         string          `json:"name,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	MerchantID   string          `json:"merchantId"`
	MerchantName string          `json:"merchantName,omitempty"`
}

type Order struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customerId,omitempty"`
	MerchantID    string          `json:"merchantId"`
	LineItems     []LineItem      `json:"lineItems,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	StatusHistory []StatusChange  `json:"statusHistory"`
}

// Page is one listing result of the orders endpoints.
type Page struct {
	Items []Order `json:"items"`
	Total int     `json:"total"`
}
