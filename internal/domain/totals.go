package domain

import "math"

// DefaultVatRate is applied to lines that specify neither a rate nor a product
const DefaultVatRate = 19.0

// DefaultUnit is applied to lines that specify neither a unit nor a product
const DefaultUnit = "Stk"

// LineInput holds the caller-supplied amounts of a single quote or invoice line
type LineInput struct {
	Quantity  float64
	UnitPrice float64
	VatRate   float64
}

// LineTotals holds the computed amounts of a single line
type LineTotals struct {
	TotalNet   float64 `json:"total_net"`
	TotalGross float64 `json:"total_gross"`
}

// ResolveVatRate picks the explicit rate, then the product's rate, then DefaultVatRate
func ResolveVatRate(explicit *float64, product *Product) float64 {
	switch {
	case explicit != nil:
		return *explicit
	case product != nil:
		return product.VatRate
	default:
		return DefaultVatRate
	}
}

// CheckTotals rejects totals that overflowed to infinity or are not a number
func CheckTotals(field string, t LineTotals) error {
	for _, v := range []float64{t.TotalNet, t.TotalGross} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return NewValidationError(field, "amount is out of range")
		}
	}
	return nil
}

// RoundMoney rounds half away from zero to whole cents
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeLine derives net and gross totals for one line:
// net = quantity * unit_price, gross = net * (1 + vat_rate/100).
func ComputeLine(in LineInput) LineTotals {
	net := RoundMoney(in.Quantity * in.UnitPrice)
	gross := RoundMoney(net * (1 + in.VatRate/100))
	return LineTotals{TotalNet: net, TotalGross: gross}
}

// SumLines returns the aggregate of already computed line totals
func SumLines(lines []LineTotals) LineTotals {
	var sum LineTotals
	for _, l := range lines {
		sum.TotalNet += l.TotalNet
		sum.TotalGross += l.TotalGross
	}
	sum.TotalNet = RoundMoney(sum.TotalNet)
	sum.TotalGross = RoundMoney(sum.TotalGross)
	return sum
}

// ComputeDocument computes every line and the aggregate in one pass
func ComputeDocument(inputs []LineInput) ([]LineTotals, LineTotals) {
	lines := make([]LineTotals, len(inputs))
	for i, in := range inputs {
		lines[i] = ComputeLine(in)
	}
	return lines, SumLines(lines)
}
