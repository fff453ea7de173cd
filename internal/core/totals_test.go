package core_test

import (
	"testing"

	"billing-service/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(qty, price, tax string) core.LineItem {
	return core.LineItem{Quantity: dec(qty), Price: dec(price), TaxRate: dec(tax)}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		items    []core.LineItem
		discount *core.Discount
		subtotal string
		discAmt  string
		tax      string
		total    string
		rate     string
	}{
		{
			name:     "percent discount across mixed tax rates",
			items:    []core.LineItem{item("2", "100", "7"), item("1", "50", "0")},
			discount: &core.Discount{Kind: core.DiscountPercent, Value: dec("10")},
			subtotal: "250", discAmt: "25", tax: "12.6", total: "237.6", rate: "10",
		},
		{
			name:     "amount discount reports effective rate",
			items:    []core.LineItem{item("2", "100", "7"), item("1", "50", "0")},
			discount: &core.Discount{Kind: core.DiscountAmount, Value: dec("30")},
			subtotal: "250", discAmt: "30", tax: "12.32", total: "232.32", rate: "12",
		},
		{
			name:     "no discount",
			items:    []core.LineItem{item("3", "10", "7")},
			subtotal: "30", discAmt: "0", tax: "2.1", total: "32.1", rate: "0",
		},
		{
			name:     "zero discount value",
			items:    []core.LineItem{item("1", "80", "7")},
			discount: &core.Discount{Kind: core.DiscountPercent, Value: dec("0")},
			subtotal: "80", discAmt: "0", tax: "5.6", total: "85.6", rate: "0",
		},
		{
			name:     "fractional quantity",
			items:    []core.LineItem{item("1.5", "40", "7")},
			subtotal: "60", discAmt: "0", tax: "4.2", total: "64.2", rate: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.ComputeTotals(tt.items, tt.discount)
			assertDecimal(t, tt.subtotal, got.Subtotal, "subtotal")
			assertDecimal(t, tt.discAmt, got.DiscountAmount, "discount amount")
			assertDecimal(t, tt.tax, got.TaxAmount, "tax amount")
			assertDecimal(t, tt.total, got.Total, "total")
			assertDecimal(t, tt.rate, got.EffectiveDiscountRate, "effective rate")
		})
	}
}

func TestComputeTotals_ZeroSubtotal(t *testing.T) {
	discount := &core.Discount{Kind: core.DiscountAmount, Value: dec("15")}

	for name, items := range map[string][]core.LineItem{
		"nil items":  nil,
		"free items": {item("3", "0", "7")},
	} {
		t.Run(name, func(t *testing.T) {
			got := core.ComputeTotals(items, discount)
			assert.True(t, got.Subtotal.IsZero())
			assert.True(t, got.DiscountAmount.IsZero())
			assert.True(t, got.TaxAmount.IsZero())
			assert.True(t, got.Total.IsZero())
			assert.True(t, got.EffectiveDiscountRate.IsZero())
		})
	}
}

func TestComputeTotals_DiscountBoundary(t *testing.T) {
	items := []core.LineItem{item("2", "19.99", "7"), item("1", "5", "10")}
	got := core.ComputeTotals(items, &core.Discount{Kind: core.DiscountPercent, Value: decimal.Zero})

	assert.True(t, got.DiscountAmount.IsZero())
	assert.True(t, got.Total.Equal(got.Subtotal.Add(got.TaxAmount)))
}

func TestComputeTotals_TaxIsPerItemNotBlended(t *testing.T) {
	items := []core.LineItem{item("1", "100", "7"), item("1", "300", "10")}
	got := core.ComputeTotals(items, &core.Discount{Kind: core.DiscountPercent, Value: dec("50")})

	// Post-discount bases are 50 and 150.
	want := dec("50").Mul(dec("0.07")).Add(dec("150").Mul(dec("0.10")))
	assertDecimal(t, want.String(), got.TaxAmount, "tax amount")

	blended := got.Subtotal.Sub(got.DiscountAmount).Mul(dec("0.085"))
	assert.False(t, blended.Equal(got.TaxAmount))
}

func TestComputeTotals_Deterministic(t *testing.T) {
	items := []core.LineItem{item("3", "33.33", "7"), item("7", "1.01", "0"), item("0.5", "99.99", "10")}
	discount := &core.Discount{Kind: core.DiscountAmount, Value: dec("17.17")}

	first := core.ComputeTotals(items, discount)
	second := core.ComputeTotals(items, discount)

	assert.Equal(t, first.Subtotal.String(), second.Subtotal.String())
	assert.Equal(t, first.DiscountAmount.String(), second.DiscountAmount.String())
	assert.Equal(t, first.TaxAmount.String(), second.TaxAmount.String())
	assert.Equal(t, first.Total.String(), second.Total.String())
	assert.Equal(t, first.EffectiveDiscountRate.String(), second.EffectiveDiscountRate.String())
}

func TestTotals_Rounded(t *testing.T) {
	got := core.ComputeTotals([]core.LineItem{item("1", "10.005", "7")}, nil).Rounded()
	assertDecimal(t, "10.01", got.Subtotal, "subtotal")
	assertDecimal(t, "0.7", got.TaxAmount, "tax amount")
}
