package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderPlacedItem struct {
	BookID          int64           `json:"bookId"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

// OrderPlacedEvent is published after the placement transaction commits.
type OrderPlacedEvent struct {
	OrderID     int64             `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	UserEmail   string            `json:"userEmail"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Items       []OrderPlacedItem `json:"items"`
	PlacedAt    time.Time         `json:"placedAt"`
}
