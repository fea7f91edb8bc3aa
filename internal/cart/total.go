package cart

import (
	"github.com/shopspring/decimal"

	"github.com/erazemk/trgovina/internal/model"
)

// TotalPrice sums price * quantity over lines, rounded to cents.
func TotalPrice(lines []model.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2)
}

// ItemCount sums the quantities of lines.
func ItemCount(lines []model.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
