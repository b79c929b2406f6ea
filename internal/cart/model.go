package cart

import (
	"shopapp/internal/catalog"

	"github.com/shopspring/decimal"
)

// Line is one product in the cart. Product is a snapshot taken when the line
// was created; later catalog changes do not touch it.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

func (l Line) ID() int {
	return l.Product.ID
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) DiscountedSubtotal() decimal.Decimal {
	return l.Product.DiscountedPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) clone() Line {
	l.Product = l.Product.Clone()
	return l
}

type Totals struct {
	Count           int             `json:"total_count"`
	Price           decimal.Decimal `json:"total_price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

func (t Totals) Savings() decimal.Decimal {
	return t.Price.Sub(t.DiscountedPrice)
}

// ComputeTotals sums quantities and line prices.
func ComputeTotals(lines []Line) Totals {
	t := Totals{Price: decimal.Zero, DiscountedPrice: decimal.Zero}
	for _, l := range lines {
		t.Count += l.Quantity
		t.Price = t.Price.Add(l.Subtotal())
		t.DiscountedPrice = t.DiscountedPrice.Add(l.DiscountedSubtotal())
	}
	return t
}
