package service

import (
	"github.com/Mythsoul/Eshop/pkg/errs"
	"github.com/shopspring/decimal"
)

var taxRate = decimal.RequireFromString("0.02")

type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// CalculateTotals prices accepted lines with authoritative unit prices. Tax is 2% of the
// subtotal, floored to whole currency units.
func CalculateTotals(lines []CartLine) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, errs.ErrEmptyCart
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(decimal.NewFromInt(line.Product.UnitPrice()).Mul(decimal.NewFromInt(line.Quantity)))
	}

	tax := subtotal.Mul(taxRate).Floor()

	return Totals{
		Subtotal: subtotal.IntPart(),
		Tax:      tax.IntPart(),
		Total:    subtotal.Add(tax).IntPart(),
	}, nil
}
