package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - The billing granularity: a calendar month
// =============================================================================

// Period is a calendar month, normalized to its first day (UTC).
// Readings, tariffs and invoices are all keyed by Period.
type Period struct {
	t time.Time
}

// NewPeriod builds the period for the given year and month.
func NewPeriod(year int, month time.Month) Period {
	return Period{t: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
}

// PeriodOf normalizes an arbitrary date to its containing month.
func PeriodOf(t time.Time) Period {
	return NewPeriod(t.Year(), t.Month())
}

// ParsePeriod parses "2006-01" (also accepts a full "2006-01-02" date).
func ParsePeriod(s string) (Period, error) {
	if t, err := time.Parse("2006-01", s); err == nil {
		return PeriodOf(t), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: want YYYY-MM", s)
	}
	return PeriodOf(t), nil
}

// Prev returns the previous calendar month.
func (p Period) Prev() Period { return PeriodOf(p.t.AddDate(0, -1, 0)) }

// Next returns the following calendar month.
func (p Period) Next() Period { return PeriodOf(p.t.AddDate(0, 1, 0)) }

// Comparison
func (p Period) Before(other Period) bool { return p.t.Before(other.t) }
func (p Period) After(other Period) bool  { return p.t.After(other.t) }
func (p Period) Equal(other Period) bool  { return p.t.Equal(other.t) }
func (p Period) IsZero() bool             { return p.t.IsZero() }

// Contains reports whether the date falls inside the month.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.t.Year() && t.Month() == p.t.Month()
}

// Properties
func (p Period) Year() int         { return p.t.Year() }
func (p Period) Month() time.Month { return p.t.Month() }

// Time returns the first day of the month as a time.Time (UTC).
func (p Period) Time() time.Time { return p.t }

func (p Period) String() string { return p.t.Format("2006-01") }
