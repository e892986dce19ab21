// Package pricing computes quote totals from line items, a VAT rate and an
// absolute discount.
//
// The calculator is pure: it neither validates nor clamps its inputs, so
// negative values propagate into the result. Validation belongs to callers.
package pricing

import "github.com/shopspring/decimal"

// Item is a single priced line.
type Item struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Total returns quantity × unit price.
func (i Item) Total() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Totals is the calculator output. ItemTotals is index-aligned with the input items.
type Totals struct {
	ItemTotals []decimal.Decimal
	Subtotal   decimal.Decimal
	VATAmount  decimal.Decimal
	Total      decimal.Decimal
}

// Calculate computes subtotal = Σ(qty × price), vat = subtotal × vatRate and
// total = subtotal + vat − discount. Results are not rounded.
func Calculate(items []Item, vatRate, discount decimal.Decimal) Totals {
	totals := Totals{
		ItemTotals: make([]decimal.Decimal, len(items)),
		Subtotal:   decimal.Zero,
	}

	for i, item := range items {
		line := item.Total()
		totals.ItemTotals[i] = line
		totals.Subtotal = totals.Subtotal.Add(line)
	}

	totals.VATAmount = totals.Subtotal.Mul(vatRate)
	totals.Total = totals.Subtotal.Add(totals.VATAmount).Sub(discount)

	return totals
}

// Round rounds to two decimal places, half away from zero. Display only.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
