package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals is the result of ComputeTotals. All values are in document currency.
type Totals struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	DiscountAmount        decimal.Decimal `json:"discount_amount"`
	TaxAmount             decimal.Decimal `json:"tax_amount"`
	Total                 decimal.Decimal `json:"total"`
	EffectiveDiscountRate decimal.Decimal `json:"effective_discount_rate"`
}

// ComputeTotals turns line items and an optional global discount into document
// totals. Tax is computed per item on the item's base after subtracting its
// proportional share of the discount, so items keep their own tax rates.
//
// It is pure: the live preview and the persisted total both come from here.
func ComputeTotals(items []LineItem, discount *Discount) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total())
	}
	if subtotal.IsZero() {
		return Totals{
			Subtotal:              decimal.Zero,
			DiscountAmount:        decimal.Zero,
			TaxAmount:             decimal.Zero,
			Total:                 decimal.Zero,
			EffectiveDiscountRate: decimal.Zero,
		}
	}

	discountAmount := discountFor(subtotal, discount)
	rate := discountAmount.Mul(hundred).Div(subtotal)

	tax := decimal.Zero
	for _, it := range items {
		itemTotal := it.Total()
		share := discountAmount.Mul(itemTotal).Div(subtotal)
		tax = tax.Add(itemTotal.Sub(share).Mul(it.TaxRate).Div(hundred))
	}

	return Totals{
		Subtotal:              subtotal,
		DiscountAmount:        discountAmount,
		TaxAmount:             tax,
		Total:                 subtotal.Sub(discountAmount).Add(tax),
		EffectiveDiscountRate: rate,
	}
}

func discountFor(subtotal decimal.Decimal, d *Discount) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	switch d.Kind {
	case DiscountPercent:
		return subtotal.Mul(d.Value).Div(hundred)
	case DiscountAmount:
		return d.Value
	}
	return decimal.Zero
}

// Rounded returns a copy with every field rounded to 2 decimal places.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:              t.Subtotal.Round(2),
		DiscountAmount:        t.DiscountAmount.Round(2),
		TaxAmount:             t.TaxAmount.Round(2),
		Total:                 t.Total.Round(2),
		EffectiveDiscountRate: t.EffectiveDiscountRate.Round(2),
	}
}
