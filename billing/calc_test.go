package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/wattwise/billing-engine/billing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// CONSUMPTION
// =============================================================================

func TestConsumption_SimpleDelta(t *testing.T) {
	got := billing.Consumption(dec("4100"), dec("4000"), decimal.Zero)
	assert.True(t, got.Equal(dec("100")), "got %s", got)
}

func TestConsumption_MeterReset_ReturnsZero(t *testing.T) {
	// GIVEN: current below previous (meter replaced or rolled over)
	// THEN: consumption is zero regardless of the adjustment
	got := billing.Consumption(dec("50"), dec("4000"), decimal.Zero)
	assert.True(t, got.IsZero(), "got %s", got)

	got = billing.Consumption(dec("50"), dec("4000"), dec("10"))
	assert.True(t, got.IsZero(), "adjustment must not leak through a reset, got %s", got)
}

func TestConsumption_AdjustmentSubtracted(t *testing.T) {
	got := billing.Consumption(dec("4155"), dec("4000"), dec("100"))
	assert.True(t, got.Equal(dec("55")), "got %s", got)
}

func TestConsumption_AdjustmentExceedsDelta_GoesNegative(t *testing.T) {
	// The primitive keeps the negative value; flooring is the policy's call.
	got := billing.Consumption(dec("4100"), dec("4000"), dec("150"))
	assert.True(t, got.Equal(dec("-50")), "got %s", got)
}

func TestConsumption_FractionalReadings(t *testing.T) {
	got := billing.Consumption(dec("123.45"), dec("100.05"), dec("0.4"))
	assert.True(t, got.Equal(dec("23")), "got %s", got)
}

// =============================================================================
// RAW CONSUMPTION
// =============================================================================

func TestRawConsumption_NoResetMasking(t *testing.T) {
	got := billing.RawConsumption(dec("50"), dec("4000"))
	assert.True(t, got.Equal(dec("-3950")), "got %s", got)
}

// =============================================================================
// COST
// =============================================================================

func TestCost_ExactDecimalMultiplication(t *testing.T) {
	tests := []struct {
		consumption string
		rate        string
		want        string
	}{
		{"100", "10.5", "1050"},
		{"30.30", "40.00", "1212.00"},
		{"0", "40", "0"},
		{"55", "40.0", "2200"},
		{"0.1", "0.1", "0.01"}, // float arithmetic would drift here
	}
	for _, tt := range tests {
		got := billing.Cost(dec(tt.consumption), dec(tt.rate))
		assert.True(t, got.Equal(dec(tt.want)),
			"cost(%s, %s) = %s, want %s", tt.consumption, tt.rate, got, tt.want)
	}
}
