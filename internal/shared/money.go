package shared

import "github.com/shopspring/decimal"

// LineTolerance is the accepted gap between quantity × unit value and a stated line total.
var LineTolerance = decimal.New(1, -2)

// LineTotal returns the line total. When total is nil it is derived from
// qty × unit; otherwise ok reports whether the stated total is within tolerance.
func LineTotal(qty, unit decimal.Decimal, total *decimal.Decimal) (decimal.Decimal, bool) {
	computed := qty.Mul(unit)
	if total == nil {
		return computed, true
	}
	return *total, computed.Sub(*total).Abs().LessThanOrEqual(LineTolerance)
}
