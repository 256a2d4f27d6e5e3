package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattwise/billing-engine/billing"
)

func TestParsePeriod(t *testing.T) {
	p, err := billing.ParsePeriod("2024-07")
	require.NoError(t, err)
	assert.Equal(t, 2024, p.Year())
	assert.Equal(t, time.July, p.Month())

	// A full date normalizes to its month.
	p, err = billing.ParsePeriod("2024-07-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-07", p.String())

	_, err = billing.ParsePeriod("July 2024")
	assert.Error(t, err)
}

func TestPeriod_PrevNext_YearBoundary(t *testing.T) {
	jan := billing.NewPeriod(2024, time.January)
	assert.Equal(t, "2023-12", jan.Prev().String())
	assert.Equal(t, "2024-02", jan.Next().String())

	dec := billing.NewPeriod(2024, time.December)
	assert.Equal(t, "2025-01", dec.Next().String())
}

func TestPeriodOf_NormalizesToFirstDay(t *testing.T) {
	p := billing.PeriodOf(time.Date(2024, time.March, 28, 17, 4, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), p.Time())
}

func TestPeriod_Contains(t *testing.T) {
	p := billing.NewPeriod(2024, time.February)
	assert.True(t, p.Contains(time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPeriod_Ordering(t *testing.T) {
	a := billing.NewPeriod(2024, time.June)
	b := billing.NewPeriod(2024, time.July)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(billing.NewPeriod(2024, time.June)))
	assert.False(t, a.IsZero())
	assert.True(t, billing.Period{}.IsZero())
}
