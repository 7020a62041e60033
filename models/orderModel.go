package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentBalance PaymentMethod = "Saldo"
	PaymentPayPal  PaymentMethod = "PayPal"
)

func init() {
	// Backend and PayPal both expect plain JSON numbers for amounts.
	decimal.MarshalJSONWithoutQuotes = true
}

// PurchaseItem is the point-in-time copy of a cart line kept on an order.
type PurchaseItem struct {
	ID       int64           `json:"id,omitempty"`
	Name     string          `json:"name"`
	Image    string          `json:"image,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity,omitempty"`
}

// PurchaseItems decodes either a JSON array or a JSON string holding an
// array; anything else decodes to an empty list.
type PurchaseItems []PurchaseItem

func (p *PurchaseItems) UnmarshalJSON(data []byte) error {
	var items []PurchaseItem
	if err := json.Unmarshal(data, &items); err == nil {
		*p = items
		return nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &items); err == nil {
			*p = items
			return nil
		}
	}

	*p = PurchaseItems{}
	return nil
}

type PurchaseRecord struct {
	ID            FlexID          `json:"id"`
	UserID        FlexID          `json:"userId,omitempty"`
	Buyer         string          `json:"buyer,omitempty"`
	Items         PurchaseItems   `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty"`
	Address       string          `json:"address,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PurchaseRequest is the body recorded by the backend for a completed checkout.
type PurchaseRequest struct {
	UserID        FlexID          `json:"userId"`
	Items         []PurchaseItem  `json:"items"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// PurchaseSnapshot backs the confirmation view and is read exactly once.
type PurchaseSnapshot struct {
	ID            string          `json:"id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Items         []PurchaseItem  `json:"items"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// SnapshotItems copies cart lines so later catalog changes cannot alter them.
func SnapshotItems(cart []CartItem) []PurchaseItem {
	items := make([]PurchaseItem, 0, len(cart))
	for _, it := range cart {
		items = append(items, PurchaseItem{
			ID:       it.ID,
			Name:     it.Name,
			Image:    it.Image,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}
	return items
}
