package notification

import (
	"strings"
	"time"
)

type Type string

const (
	TypeOrderCreated     Type = "order_created"
	TypeOrderConfirmed   Type = "order_confirmed"
	TypeOrderDelivered   Type = "order_delivered"
	TypeOrderCancelled   Type = "order_cancelled"
	TypeOrderStatus      Type = "order_status"
	TypeDeliveryAssigned Type = "delivery_assigned"
	TypePromotion        Type = "promotion"
	TypeSystem           Type = "system"
)

// OrderRelated reports whether RelatedID names an order.
func (t Type) OrderRelated() bool {
	return strings.HasPrefix(string(t), "order_") || strings.HasPrefix(string(t), "delivery_")
}

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	RelatedID string    `json:"relatedId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Page is one pull snapshot.
type Page struct {
	Items       []Notification `json:"items"`
	UnreadCount int            `json:"unreadCount"`
	Total       int            `json:"total"`
}

// frame is one message of the push channel.
type frame struct {
	Type string       `json:"type"`
	Data Notification `json:"data"`
}
