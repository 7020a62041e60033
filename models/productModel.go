package models

import "github.com/shopspring/decimal"

type ProductImage struct {
	ID  int64  `json:"id,omitempty"`
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

type ProductCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ProductAttribute struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// Product mirrors the catalog document. Prices stay strings because the
// catalog sends "" for unset sale prices.
type Product struct {
	ID               int64              `json:"id"`
	Name             string             `json:"name"`
	Slug             string             `json:"slug"`
	Permalink        string             `json:"permalink,omitempty"`
	Price            string             `json:"price"`
	RegularPrice     string             `json:"regular_price"`
	SalePrice        string             `json:"sale_price"`
	Description      string             `json:"description"`
	ShortDescription string             `json:"short_description,omitempty"`
	Images           []ProductImage     `json:"images"`
	Categories       []ProductCategory  `json:"categories"`
	Attributes       []ProductAttribute `json:"attributes"`
	AverageRating    string             `json:"average_rating"`
	RatingCount      int                `json:"rating_count"`
}

// UnitPrice parses the effective price. ok is false when the catalog
// sent no usable price.
func (p Product) UnitPrice() (price decimal.Decimal, ok bool) {
	for _, raw := range []string{p.Price, p.SalePrice, p.RegularPrice} {
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err == nil && d.IsPositive() {
			return d, true
		}
	}
	return decimal.Zero, false
}

// MainImage returns the first image source, or "" when there is none.
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].Src
}

type ProductFilters struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	PerPage  int    `form:"per_page"`
	Page     int    `form:"page"`
}
