package domain

import "time"

// ShoppingCart exists at most once per user and is created lazily on
// first access.
type ShoppingCart struct {
	ID        int64     `json:"id"`
	UserEmail string    `json:"userEmail"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CartItem is unique per (cart, book); adding an already-present book
// increases the quantity instead of inserting a second row.
type CartItem struct {
	ID        int64     `json:"id"`
	CartID    int64     `json:"cartId"`
	BookID    int64     `json:"bookId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
