package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidOperation, s)
}

// ValidTransitions returns the statuses reachable from s. DELIVERED and
// CANCELLED are terminal.
func (s OrderStatus) ValidTransitions() []OrderStatus {
	switch s {
	case OrderStatusPending:
		return []OrderStatus{OrderStatusShipped, OrderStatusCancelled}
	case OrderStatusShipped:
		return []OrderStatus{OrderStatusDelivered, OrderStatusCancelled}
	default:
		return nil
	}
}

// ValidateTransition rejects self-transitions and any pair outside the
// allowed set. It is consulted before every write to an order's status.
func ValidateTransition(from, to OrderStatus) error {
	if from == to {
		return fmt.Errorf("%w: order is already in status %s", ErrInvalidOperation, from)
	}
	for _, next := range from.ValidTransitions() {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid status transition from %s to %s", ErrInvalidOperation, from, to)
}

// Order is append-only after creation: only Status and UpdatedAt mutate.
type Order struct {
	ID              int64           `json:"id"`
	UserEmail       string          `json:"userEmail"`
	OrderNumber     string          `json:"orderNumber"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress string          `json:"shippingAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem freezes the unit price at purchase time; it is never
// recomputed from the current catalog price.
type OrderItem struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"orderId"`
	BookID          int64           `json:"bookId"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
	CreatedAt       time.Time       `json:"createdAt"`
}
