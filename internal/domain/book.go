package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is owned by the catalog; carts and orders reference it by id only
// and must tolerate the referent disappearing.
type Book struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	CategoryID    int64           `json:"categoryId"`
	CoverImageURL string          `json:"coverImageUrl,omitempty"`
	Deleted       bool            `json:"-"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
