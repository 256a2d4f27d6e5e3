/*
store.go - Persistence contracts for the billing engine

PURPOSE:
  Defines the narrow interfaces between the engine and whatever stores
  the entities. The engine is a library: it owns no wire protocol or file
  format, only these contracts and the relational shape they imply
  (uniqueness of (meter, period) readings, (tenant, period) invoices,
  (parent, child) deduction links).

IMPLEMENTATIONS:
  - store/sqlite: production SQLite
  - billing/store: in-memory, for tests and dev

All methods take a context; data access may suspend but is strictly
sequential within one invoice computation.
*/
package billing

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE CONTRACTS
// =============================================================================

// TenantStore looks up tenants and enumerates them for batch billing.
type TenantStore interface {
	GetTenant(ctx context.Context, id TenantID) (*Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
}

// MeterStore loads the meters owned by a tenant.
type MeterStore interface {
	GetMeter(ctx context.Context, id MeterID) (*Meter, error)
	ListMetersByTenant(ctx context.Context, tenantID TenantID) ([]Meter, error)
}

// ReadingStore fetches and records readings. Upsert enforces the
// one-reading-per-(meter, period) invariant by overwriting.
type ReadingStore interface {
	// GetReadings returns readings for the meter in [from, to], ordered by period.
	GetReadings(ctx context.Context, meterID MeterID, from, to Period) ([]Reading, error)

	// UpsertReading creates or replaces the reading for (meter, period).
	UpsertReading(ctx context.Context, meterID MeterID, period Period, value, adjustment decimal.Decimal) (*Reading, error)
}

// TariffStore resolves and manages tariffs.
type TariffStore interface {
	// FindTariffForPeriod returns the tariff active on the period, or nil.
	// With overlapping windows (a data-integrity violation upstream) the
	// most recently started tariff wins.
	FindTariffForPeriod(ctx context.Context, meterID MeterID, on Period) (*Tariff, error)

	ListTariffsByMeter(ctx context.Context, meterID MeterID) ([]Tariff, error)

	// CreateTariff stores a new tariff and closes the meter's previously
	// open-ended tariff at the day before the new start.
	CreateTariff(ctx context.Context, t Tariff) (*Tariff, error)

	// ListTariffTemplates returns the distinct (name, rate) pairs across
	// all tariffs, offered as copy templates by the entry workflow.
	ListTariffTemplates(ctx context.Context) ([]TariffTemplate, error)
}

// TariffTemplate is a distinct (name, rate) pair over existing tariffs.
// UI convenience only; not used by the calculation path.
type TariffTemplate struct {
	Name string
	Rate decimal.Decimal
}

// InvoiceStore persists invoices with last-write-wins upsert semantics on
// the (tenant, period) key.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, id InvoiceID) (*Invoice, error)

	// UpsertInvoice creates the invoice for (tenant, period) or overwrites
	// its amount if one exists.
	UpsertInvoice(ctx context.Context, tenantID TenantID, period Period, amount decimal.Decimal) (*Invoice, error)

	// AddInvoiceAmount atomically increments the stored amount. Used by the
	// adjustment ledger.
	AddInvoiceAmount(ctx context.Context, id InvoiceID, delta decimal.Decimal) (*Invoice, error)
}

// AdjustmentStore is append-only: corrections are recorded, never edited.
type AdjustmentStore interface {
	AppendAdjustment(ctx context.Context, a Adjustment) (*Adjustment, error)
	ListAdjustmentsByInvoice(ctx context.Context, invoiceID InvoiceID) ([]Adjustment, error)
}

// DeductionLinkStore is only needed when links are used to suggest manual
// adjustments at data entry.
type DeductionLinkStore interface {
	FindLinksByParent(ctx context.Context, meterID MeterID) ([]DeductionLink, error)
	FindLinksByChild(ctx context.Context, meterID MeterID) ([]DeductionLink, error)
}

// Store bundles every contract the engine needs. The SQLite and memory
// stores implement all of them on one value.
type Store interface {
	TenantStore
	MeterStore
	ReadingStore
	TariffStore
	InvoiceStore
	AdjustmentStore
	DeductionLinkStore
}
