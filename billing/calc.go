package billing

import "github.com/shopspring/decimal"

// =============================================================================
// CALCULATION PRIMITIVES - pure functions, no state, no I/O
// =============================================================================

// Consumption computes the billable consumption between two readings,
// subtracting an adjustment from the raw delta.
//
// If current < previous the meter is assumed replaced or reset and
// consumption is zero. This masks genuinely negative deltas; callers that
// need the unmasked value use RawConsumption.
//
// The result MAY be negative when the adjustment exceeds the raw delta.
// The deduction policy decides whether that is floored to zero or rejected.
func Consumption(current, previous, adjustment decimal.Decimal) decimal.Decimal {
	if current.LessThan(previous) {
		return decimal.Zero
	}
	return current.Sub(previous).Sub(adjustment)
}

// RawConsumption returns the plain current-previous delta, no reset
// masking, no adjustment.
func RawConsumption(current, previous decimal.Decimal) decimal.Decimal {
	return current.Sub(previous)
}

// Cost is consumption times rate, exact decimal multiplication. Rounding
// and display formatting belong to the export layer, not here.
func Cost(consumption, rate decimal.Decimal) decimal.Decimal {
	return consumption.Mul(rate)
}
