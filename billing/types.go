/*
Package billing provides the core utility-billing computation engine.

PURPOSE:
  This package contains the domain types and algorithms for turning meter
  readings into monthly invoices: consumption calculation, tariff
  resolution, submeter deduction handling, completeness checking, and
  invoice generation.

KEY CONCEPTS IN THIS FILE (types.go):
  - Tenant/Meter/Reading/Tariff/Invoice/Adjustment: The billing entities
  - DeductionLink: Advisory parent/child relation used to suggest adjustments
  - MeterBillingResult: Per-meter breakdown returned alongside an invoice
  - Typed IDs: Strong typing prevents mixing tenant/meter/invoice IDs

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal everywhere - never float - so monetary
     amounts never drift
  2. Snapshots: The engine operates on read snapshots fetched per invocation,
     never on live subscriptions
  3. Idempotency: Invoices are keyed (tenant, period) and upserted, so
     regeneration after a reading correction overwrites the prior amount

USAGE:
  engine := billing.NewEngine(stores, billing.FloorAdjustment{})
  invoice, breakdown, err := engine.GenerateInvoice(ctx, tenantID, period)

SEE ALSO:
  - calc.go: Pure consumption/cost primitives
  - policy.go: Deduction policy strategies
  - engine.go: Invoice generation orchestrator
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// MustParseDecimal parses a stored decimal string, returning zero on
// malformed input rather than panicking (stores treat it as data corruption
// to surface elsewhere).
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type MeterID string
type ReadingID string
type TariffID string
type InvoiceID string
type AdjustmentID string
type DeductionLinkID string

// =============================================================================
// RESOURCE TYPE - informational only, does not affect calculation
// =============================================================================

type ResourceType string

const (
	ResourceElectricity ResourceType = "electricity"
	ResourceWater       ResourceType = "water"
	ResourceHeat        ResourceType = "heat"
)

// =============================================================================
// ENTITIES
// =============================================================================

// Tenant rents a property and owns meters. Invoices are issued per tenant.
type Tenant struct {
	ID        TenantID
	Name      string
	CreatedAt time.Time
}

// Meter is a tracked utility consumption point belonging to one tenant.
//
// SubtractFromID links this meter to a parent meter whose billable
// consumption should be reduced by this meter's consumption (the strict
// subtraction variant). Nil for ordinary meters. Deleting the parent sets
// this to nil; past invoices keep their computed amounts.
type Meter struct {
	ID             MeterID
	TenantID       TenantID
	Name           string // e.g. "Office", "Warehouse"
	Resource       ResourceType
	SubtractFromID *MeterID
	CreatedAt      time.Time
}

// Reading is a meter value recorded for one (meter, period) pair.
// At most one reading per (meter, period) - a hard uniqueness invariant
// enforced by the stores.
//
// ManualAdjustment is consumption to exclude for this period (e.g. a known
// submeter deduction entered by the operator). Non-negative, defaults to
// zero, subtracted from the raw delta before costing.
type Reading struct {
	ID               ReadingID
	MeterID          MeterID
	Period           Period
	Value            decimal.Decimal
	ManualAdjustment decimal.Decimal
	CreatedAt        time.Time
}

// Tariff is a monetary rate per unit of consumption, effective from
// PeriodStart (inclusive) to PeriodEnd (inclusive). A nil PeriodEnd means
// the tariff is open-ended / current.
//
// Windows for the same meter should not overlap; the resolution algorithm
// tolerates violations by picking the most recently started tariff.
type Tariff struct {
	ID          TariffID
	MeterID     MeterID
	Name        string // e.g. "Standard", "Night rate"
	Rate        decimal.Decimal
	PeriodStart Period
	PeriodEnd   *Period
	CreatedAt   time.Time
}

// Active reports whether the tariff window covers the given period.
func (t Tariff) Active(on Period) bool {
	if on.Before(t.PeriodStart) {
		return false
	}
	return t.PeriodEnd == nil || !t.PeriodEnd.Before(on)
}

// DeductionLink declares that the child meter's consumption is a deduction
// candidate against the parent meter. The link is advisory: it is used to
// suggest adjustment values at data-entry time, the actual deduction is
// realized through Reading.ManualAdjustment. Unique per (parent, child).
type DeductionLink struct {
	ID            DeductionLinkID
	ParentMeterID MeterID
	ChildMeterID  MeterID
	Description   string
	CreatedAt     time.Time
}

// Invoice is one monetary amount for a (tenant, period) pair. Unique per
// (tenant, period): regenerating updates the amount in place.
type Invoice struct {
	ID        InvoiceID
	TenantID  TenantID
	Period    Period
	Amount    decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Adjustment is an append-only signed monetary correction tied to an
// invoice. Applying one increments the invoice's stored amount and leaves
// a permanent record.
type Adjustment struct {
	ID          AdjustmentID
	InvoiceID   InvoiceID
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

// =============================================================================
// BILLING RESULT - per-meter breakdown for downstream reporting
// =============================================================================

// MeterBillingResult bundles everything reporting needs to explain a
// meter's line on an invoice to a human.
type MeterBillingResult struct {
	Meter  Meter
	Tariff Tariff

	// Final billable consumption after adjustments/deductions.
	Consumption decimal.Decimal

	// Cost of the final consumption at the tariff rate.
	Cost decimal.Decimal

	// Plain current-previous delta, no floor, no adjustment.
	RawConsumption decimal.Decimal

	// Adjustment subtracted from the raw delta (zero under strict subtraction).
	Adjustment decimal.Decimal
}

// =============================================================================
// ISSUES - completeness check output
// =============================================================================

type IssueKind string

const (
	IssueTenantNotFound IssueKind = "tenant_not_found"
	IssueMissingReading IssueKind = "missing_reading"
	IssueMissingTariff  IssueKind = "missing_tariff"
)

// Issue is one missing fact preventing a tenant/period from being billed.
// Message is ready to show to an end user without further lookups.
type Issue struct {
	Kind      IssueKind
	MeterID   MeterID
	MeterName string
	Period    Period
	Message   string
}
