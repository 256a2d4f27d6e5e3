/*
engine.go - Invoice generation orchestrator

PURPOSE:
  Bills every meter a tenant owns, applies the configured deduction
  policy, sums to a total, and upserts one invoice per (tenant, period).
  Also owns the adjustment ledger and the pre-flight completeness check.

GUARANTEES:
  - No partial invoices: any single meter's failure aborts the whole
    generation for that tenant.
  - Idempotent: regenerating for the same (tenant, period) overwrites the
    stored amount; it never creates a second invoice row.
  - Batch isolation: RunBatch catches each tenant's failure and continues.

SEE ALSO:
  - policy.go: The two deduction strategies
  - completeness.go: Pre-flight missing-data reporting
*/
package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes invoices on top of the store contracts. It keeps no
// state of its own; every call works on a fresh read snapshot.
type Engine struct {
	Tenants     TenantStore
	Meters      MeterStore
	Readings    ReadingStore
	Tariffs     TariffStore
	Invoices    InvoiceStore
	Adjustments AdjustmentStore
	Links       DeductionLinkStore

	Policy DeductionPolicy
}

// NewEngine wires an engine over a combined store with the given policy.
func NewEngine(store Store, policy DeductionPolicy) *Engine {
	return &Engine{
		Tenants:     store,
		Meters:      store,
		Readings:    store,
		Tariffs:     store,
		Invoices:    store,
		Adjustments: store,
		Links:       store,
		Policy:      policy,
	}
}

// =============================================================================
// SINGLE METER
// =============================================================================

// BillMeter computes one meter's consumption and cost for a period.
//
// Both the period's reading and the previous period's reading must exist,
// and a tariff must be active on the period; each absence fails with an
// error naming the meter and the missing fact.
func (e *Engine) BillMeter(ctx context.Context, meter Meter, period Period) (MeterBillingResult, error) {
	current, err := e.readingAt(ctx, meter.ID, period)
	if err != nil {
		return MeterBillingResult{}, err
	}
	if current == nil {
		return MeterBillingResult{}, &MissingReadingError{MeterID: meter.ID, MeterName: meter.Name, Period: period}
	}

	prev, err := e.readingAt(ctx, meter.ID, period.Prev())
	if err != nil {
		return MeterBillingResult{}, err
	}
	if prev == nil {
		return MeterBillingResult{}, &MissingReadingError{MeterID: meter.ID, MeterName: meter.Name, Period: period.Prev()}
	}

	tariff, err := e.Tariffs.FindTariffForPeriod(ctx, meter.ID, period)
	if err != nil {
		return MeterBillingResult{}, err
	}
	if tariff == nil {
		return MeterBillingResult{}, &MissingTariffError{MeterID: meter.ID, MeterName: meter.Name, Period: period}
	}

	adjustment := e.Policy.ReadingAdjustment(*current)
	consumption := Consumption(current.Value, prev.Value, adjustment)
	if consumption.IsNegative() && e.Policy.FloorNegativeConsumption() {
		consumption = decimal.Zero
	}

	return MeterBillingResult{
		Meter:          meter,
		Tariff:         *tariff,
		Consumption:    consumption,
		Cost:           Cost(consumption, tariff.Rate),
		RawConsumption: RawConsumption(current.Value, prev.Value),
		Adjustment:     adjustment,
	}, nil
}

func (e *Engine) readingAt(ctx context.Context, meterID MeterID, period Period) (*Reading, error) {
	readings, err := e.Readings.GetReadings(ctx, meterID, period, period)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, nil
	}
	return &readings[0], nil
}

// =============================================================================
// INVOICE GENERATION
// =============================================================================

// GenerateInvoice creates or updates the consolidated invoice for a tenant
// and period. Returns the invoice plus the full per-meter breakdown keyed
// by meter ID; the breakdown is for the reporting/export collaborators,
// the engine itself only needs the total.
func (e *Engine) GenerateInvoice(ctx context.Context, tenantID TenantID, period Period) (*Invoice, map[MeterID]MeterBillingResult, error) {
	tenant, err := e.Tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if tenant == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
	}

	meters, err := e.Meters.ListMetersByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, nil, err
	}

	// Bill every meter independently first; deduction resolution needs all
	// results before any parent can be finalized.
	results := make(map[MeterID]*MeterBillingResult, len(meters))
	for _, meter := range meters {
		res, err := e.BillMeter(ctx, meter, period)
		if err != nil {
			return nil, nil, err
		}
		r := res
		results[meter.ID] = &r
	}

	if err := e.Policy.Resolve(results); err != nil {
		return nil, nil, err
	}

	total := decimal.Zero
	breakdown := make(map[MeterID]MeterBillingResult, len(results))
	for id, res := range results {
		total = total.Add(res.Cost)
		breakdown[id] = *res
	}

	invoice, err := e.Invoices.UpsertInvoice(ctx, tenant.ID, period, total)
	if err != nil {
		return nil, nil, err
	}
	return invoice, breakdown, nil
}

// =============================================================================
// ADJUSTMENT LEDGER
// =============================================================================

// AddAdjustment appends a signed correction to an invoice and increments
// the invoice's stored amount. The record is permanent; the invoice amount
// is the only thing mutated.
func (e *Engine) AddAdjustment(ctx context.Context, invoiceID InvoiceID, amount decimal.Decimal, description string) (*Adjustment, error) {
	invoice, err := e.Invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, invoiceID)
	}

	adj, err := e.Adjustments.AppendAdjustment(ctx, Adjustment{
		InvoiceID:   invoiceID,
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	if _, err := e.Invoices.AddInvoiceAmount(ctx, invoiceID, amount); err != nil {
		return nil, err
	}
	return adj, nil
}

// ListAdjustments returns all adjustments for an invoice, for display.
func (e *Engine) ListAdjustments(ctx context.Context, invoiceID InvoiceID) ([]Adjustment, error) {
	invoice, err := e.Invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, invoiceID)
	}
	return e.Adjustments.ListAdjustmentsByInvoice(ctx, invoiceID)
}

// =============================================================================
// DEDUCTION SUGGESTION - link-based, advisory only
// =============================================================================

// DeductionSuggestion is the consumption of one linked child meter,
// offered to the operator as a manual adjustment value.
type DeductionSuggestion struct {
	Link             DeductionLink
	ChildConsumption decimal.Decimal
}

// SuggestDeductions computes, for each deduction link of a parent meter,
// the child's raw consumption in the period. The entry workflow shows
// these as proposed ManualAdjustment values; nothing is recorded here.
// Children without both readings are skipped - a suggestion is optional
// where a bill is not.
func (e *Engine) SuggestDeductions(ctx context.Context, parentMeterID MeterID, period Period) ([]DeductionSuggestion, error) {
	links, err := e.Links.FindLinksByParent(ctx, parentMeterID)
	if err != nil {
		return nil, err
	}

	var suggestions []DeductionSuggestion
	for _, link := range links {
		current, err := e.readingAt(ctx, link.ChildMeterID, period)
		if err != nil {
			return nil, err
		}
		prev, err := e.readingAt(ctx, link.ChildMeterID, period.Prev())
		if err != nil {
			return nil, err
		}
		if current == nil || prev == nil {
			continue
		}
		suggestions = append(suggestions, DeductionSuggestion{
			Link:             link,
			ChildConsumption: Consumption(current.Value, prev.Value, decimal.Zero),
		})
	}
	return suggestions, nil
}

// =============================================================================
// REPORTING HELPERS
// =============================================================================

// AggregateCostsByTariff sums per-meter costs grouped by tariff name.
// Used by the export layer for invoice line grouping.
func AggregateCostsByTariff(results map[MeterID]MeterBillingResult) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, res := range results {
		name := res.Tariff.Name
		if name == "" {
			name = "default"
		}
		totals[name] = totals[name].Add(res.Cost)
	}
	return totals
}

// =============================================================================
// BATCH BILLING - one tenant at a time, failures isolated
// =============================================================================

// BatchResult records the outcome of one tenant in a batch run.
type BatchResult struct {
	TenantID   TenantID
	TenantName string
	Invoice    *Invoice
	Err        error
}

// RunBatch generates invoices for every tenant for the period, one tenant
// at a time. A tenant's BillingError never aborts the batch: it is
// recorded in that tenant's BatchResult and the loop continues. Only
// enumeration failure (the tenant list itself) returns an error.
func (e *Engine) RunBatch(ctx context.Context, period Period) ([]BatchResult, error) {
	tenants, err := e.Tenants.ListTenants(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]BatchResult, 0, len(tenants))
	for _, tenant := range tenants {
		invoice, _, err := e.GenerateInvoice(ctx, tenant.ID, period)
		results = append(results, BatchResult{
			TenantID:   tenant.ID,
			TenantName: tenant.Name,
			Invoice:    invoice,
			Err:        err,
		})
	}
	return results, nil
}
