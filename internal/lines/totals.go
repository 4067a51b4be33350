package lines

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals are the derived document amounts. They are a preview only; the
// API returns the authoritative values on every mutation.
type Totals struct {
	Untaxed decimal.Decimal
	Tax     decimal.Decimal
	Total   decimal.Decimal
}

// Compute folds component rows into totals. Sections are skipped.
func Compute(items []LineItem) Totals {
	untaxed := decimal.Zero
	tax := decimal.Zero
	for _, item := range items {
		if item.IsSection() {
			continue
		}
		sub := item.Subtotal()
		untaxed = untaxed.Add(sub)
		tax = tax.Add(item.Tax.Div(hundred).Mul(sub))
	}
	return Totals{
		Untaxed: untaxed,
		Tax:     tax,
		Total:   untaxed.Add(tax),
	}
}

// Equal compares amounts numerically
func (t Totals) Equal(o Totals) bool {
	return t.Untaxed.Equal(o.Untaxed) && t.Tax.Equal(o.Tax) && t.Total.Equal(o.Total)
}
