/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Not-found errors - tenant or invoice lookups; abort immediately
  2. Missing-data errors - a required reading or tariff is absent;
     surfaced with meter and period so they render directly to a user
  3. Invariant violations - a submeter consumed more than its parent
     under strict subtraction; a data-integrity problem, never clamped

PROPAGATION:
  A single meter's failure aborts the whole invoice for that tenant -
  the engine never bills "what it can". Batch callers catch per tenant
  and continue (see Engine.RunBatch).
*/
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTenantNotFound is returned when a referenced tenant doesn't exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrMeterNotFound is returned when a referenced meter doesn't exist.
	ErrMeterNotFound = errors.New("meter not found")

	// ErrInvoiceNotFound is returned when a referenced invoice doesn't exist.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrMissingReading is returned when a period or its predecessor has no reading.
	ErrMissingReading = errors.New("missing reading")

	// ErrMissingTariff is returned when no tariff is active on the billing date.
	ErrMissingTariff = errors.New("missing tariff")

	// ErrNegativeSubtraction is returned by the strict subtraction policy
	// when submeter consumption exceeds the parent's.
	ErrNegativeSubtraction = errors.New("submeter consumption exceeds parent consumption")

	// ErrDuplicateLink is returned when a (parent, child) deduction link
	// already exists.
	ErrDuplicateLink = errors.New("deduction link already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry enough context to render to an end user
// =============================================================================

// MissingReadingError names the meter and the period whose reading is absent.
type MissingReadingError struct {
	MeterID   MeterID
	MeterName string
	Period    Period
}

func (e *MissingReadingError) Error() string {
	return fmt.Sprintf("no reading for meter %q (%s) in %s", e.MeterName, e.MeterID, e.Period)
}

func (e *MissingReadingError) Unwrap() error { return ErrMissingReading }

// MissingTariffError names the meter and the date with no active tariff.
type MissingTariffError struct {
	MeterID   MeterID
	MeterName string
	Period    Period
}

func (e *MissingTariffError) Error() string {
	return fmt.Sprintf("no active tariff for meter %q (%s) on %s", e.MeterName, e.MeterID, e.Period)
}

func (e *MissingTariffError) Unwrap() error { return ErrMissingTariff }

// SubtractionError reports a negative parent remainder under strict
// subtraction. Indicates data entry error or a genuine billing anomaly
// worth halting on.
type SubtractionError struct {
	ParentMeterID     MeterID
	ParentMeterName   string
	ParentConsumption decimal.Decimal
	ChildrenConsumed  decimal.Decimal
}

func (e *SubtractionError) Error() string {
	return fmt.Sprintf("submeters of %q (%s) consumed %s which exceeds the parent's %s",
		e.ParentMeterName, e.ParentMeterID, e.ChildrenConsumed, e.ParentConsumption)
}

func (e *SubtractionError) Unwrap() error { return ErrNegativeSubtraction }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTenantNotFound) ||
		errors.Is(err, ErrMeterNotFound) ||
		errors.Is(err, ErrInvoiceNotFound)
}

// IsMissingData returns true if the error is a pre-flight-detectable data
// gap (the kind the completeness check reports as issues).
func IsMissingData(err error) bool {
	return errors.Is(err, ErrMissingReading) ||
		errors.Is(err, ErrMissingTariff)
}
