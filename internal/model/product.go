package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as served by the remote API.
type Product struct {
	ID          int64           `json:"id"`
	Barcode     string          `json:"barcode"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Quantity > 0
}

// ProductInput holds the writable fields of a product.
type ProductInput struct {
	Barcode     string          `json:"barcode"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
}

// Normalize trims surrounding whitespace from the text fields.
func (in *ProductInput) Normalize() {
	in.Barcode = strings.TrimSpace(in.Barcode)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
}

// Validate checks required fields and non-negative price and quantity.
func (in ProductInput) Validate() error {
	switch {
	case in.Barcode == "":
		return fmt.Errorf("barcode required")
	case in.Description == "":
		return fmt.Errorf("description required")
	case in.Category == "":
		return fmt.Errorf("category required")
	case in.Price.IsNegative():
		return fmt.Errorf("price must not be negative")
	case in.Quantity < 0:
		return fmt.Errorf("quantity must not be negative")
	}
	return nil
}

// Input returns the writable fields of p.
func (p Product) Input() ProductInput {
	return ProductInput{
		Barcode:     p.Barcode,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Category:    p.Category,
	}
}
