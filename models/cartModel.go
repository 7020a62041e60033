package models

import "github.com/shopspring/decimal"

const (
	MinCartQuantity = 1
	MaxCartQuantity = 10
)

type CartItem struct {
	ID       int64           `json:"id" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
}

// Subtotal is the line total, price times quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ClampQuantity bounds n to [MinCartQuantity, MaxCartQuantity].
func ClampQuantity(n int) int {
	if n < MinCartQuantity {
		return MinCartQuantity
	}
	if n > MaxCartQuantity {
		return MaxCartQuantity
	}
	return n
}
