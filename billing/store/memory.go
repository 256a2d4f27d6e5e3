// Package store provides an in-memory billing.Store implementation
// (for testing/dev).
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wattwise/billing-engine/billing"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	tenants     map[billing.TenantID]billing.Tenant
	meters      map[billing.MeterID]billing.Meter
	readings    map[readingKey]billing.Reading
	tariffs     map[billing.TariffID]billing.Tariff
	invoices    map[billing.InvoiceID]billing.Invoice
	adjustments map[billing.InvoiceID][]billing.Adjustment
	links       map[billing.DeductionLinkID]billing.DeductionLink
}

type readingKey struct {
	MeterID billing.MeterID
	Period  string
}

func NewMemory() *Memory {
	return &Memory{
		tenants:     make(map[billing.TenantID]billing.Tenant),
		meters:      make(map[billing.MeterID]billing.Meter),
		readings:    make(map[readingKey]billing.Reading),
		tariffs:     make(map[billing.TariffID]billing.Tariff),
		invoices:    make(map[billing.InvoiceID]billing.Invoice),
		adjustments: make(map[billing.InvoiceID][]billing.Adjustment),
		links:       make(map[billing.DeductionLinkID]billing.DeductionLink),
	}
}

// =============================================================================
// TENANTS
// =============================================================================

func (m *Memory) CreateTenant(_ context.Context, name string) (*billing.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := billing.Tenant{
		ID:        billing.TenantID(uuid.NewString()),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	m.tenants[t.ID] = t
	return &t, nil
}

func (m *Memory) GetTenant(_ context.Context, id billing.TenantID) (*billing.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tenants[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *Memory) ListTenants(_ context.Context) ([]billing.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tenants := make([]billing.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		tenants = append(tenants, t)
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].Name < tenants[j].Name })
	return tenants, nil
}

// =============================================================================
// METERS
// =============================================================================

func (m *Memory) CreateMeter(_ context.Context, meter billing.Meter) (*billing.Meter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if meter.ID == "" {
		meter.ID = billing.MeterID(uuid.NewString())
	}
	meter.CreatedAt = time.Now().UTC()
	m.meters[meter.ID] = meter
	return &meter, nil
}

func (m *Memory) GetMeter(_ context.Context, id billing.MeterID) (*billing.Meter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meter, ok := m.meters[id]
	if !ok {
		return nil, nil
	}
	return &meter, nil
}

func (m *Memory) DeleteMeter(_ context.Context, id billing.MeterID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.meters[id]; !ok {
		return billing.ErrMeterNotFound
	}
	delete(m.meters, id)
	for other, meter := range m.meters {
		if meter.SubtractFromID != nil && *meter.SubtractFromID == id {
			meter.SubtractFromID = nil
			m.meters[other] = meter
		}
	}
	return nil
}

func (m *Memory) ListMetersByTenant(_ context.Context, tenantID billing.TenantID) ([]billing.Meter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var meters []billing.Meter
	for _, meter := range m.meters {
		if meter.TenantID == tenantID {
			meters = append(meters, meter)
		}
	}
	sort.Slice(meters, func(i, j int) bool { return meters[i].Name < meters[j].Name })
	return meters, nil
}

// =============================================================================
// READINGS
// =============================================================================

func (m *Memory) GetReadings(_ context.Context, meterID billing.MeterID, from, to billing.Period) ([]billing.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var readings []billing.Reading
	for _, r := range m.readings {
		if r.MeterID != meterID {
			continue
		}
		if r.Period.Before(from) || r.Period.After(to) {
			continue
		}
		readings = append(readings, r)
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].Period.Before(readings[j].Period) })
	return readings, nil
}

func (m *Memory) UpsertReading(_ context.Context, meterID billing.MeterID, period billing.Period, value, adjustment decimal.Decimal) (*billing.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := readingKey{MeterID: meterID, Period: period.String()}
	r, ok := m.readings[k]
	if !ok {
		r = billing.Reading{
			ID:        billing.ReadingID(uuid.NewString()),
			MeterID:   meterID,
			Period:    period,
			CreatedAt: time.Now().UTC(),
		}
	}
	r.Value = value
	r.ManualAdjustment = adjustment
	m.readings[k] = r
	return &r, nil
}

// =============================================================================
// TARIFFS
// =============================================================================

func (m *Memory) FindTariffForPeriod(_ context.Context, meterID billing.MeterID, on billing.Period) (*billing.Tariff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var candidates []billing.Tariff
	for _, t := range m.tariffs {
		if t.MeterID == meterID {
			candidates = append(candidates, t)
		}
	}
	active, _ := billing.ResolveActiveTariff(candidates, on)
	return active, nil
}

func (m *Memory) ListTariffsByMeter(_ context.Context, meterID billing.MeterID) ([]billing.Tariff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tariffs []billing.Tariff
	for _, t := range m.tariffs {
		if t.MeterID == meterID {
			tariffs = append(tariffs, t)
		}
	}
	sort.Slice(tariffs, func(i, j int) bool { return tariffs[i].PeriodStart.Before(tariffs[j].PeriodStart) })
	return tariffs, nil
}

func (m *Memory) CreateTariff(_ context.Context, t billing.Tariff) (*billing.Tariff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Close the previously open tariff the month before the new start.
	for id, existing := range m.tariffs {
		if existing.MeterID == t.MeterID && existing.PeriodEnd == nil && existing.PeriodStart.Before(t.PeriodStart) {
			end := t.PeriodStart.Prev()
			existing.PeriodEnd = &end
			m.tariffs[id] = existing
		}
	}

	if t.ID == "" {
		t.ID = billing.TariffID(uuid.NewString())
	}
	t.CreatedAt = time.Now().UTC()
	m.tariffs[t.ID] = t
	return &t, nil
}

func (m *Memory) ListTariffTemplates(_ context.Context) ([]billing.TariffTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type tplKey struct {
		Name string
		Rate string
	}
	seen := make(map[tplKey]bool)
	var templates []billing.TariffTemplate
	for _, t := range m.tariffs {
		k := tplKey{Name: t.Name, Rate: t.Rate.String()}
		if seen[k] {
			continue
		}
		seen[k] = true
		templates = append(templates, billing.TariffTemplate{Name: t.Name, Rate: t.Rate})
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}

// =============================================================================
// INVOICES
// =============================================================================

func (m *Memory) GetInvoice(_ context.Context, id billing.InvoiceID) (*billing.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inv, ok := m.invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (m *Memory) GetInvoiceForPeriod(_ context.Context, tenantID billing.TenantID, period billing.Period) (*billing.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, inv := range m.invoices {
		if inv.TenantID == tenantID && inv.Period.Equal(period) {
			return &inv, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListInvoicesByTenant(_ context.Context, tenantID billing.TenantID) ([]billing.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var invoices []billing.Invoice
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID {
			invoices = append(invoices, inv)
		}
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].Period.Before(invoices[j].Period) })
	return invoices, nil
}

func (m *Memory) UpsertInvoice(_ context.Context, tenantID billing.TenantID, period billing.Period, amount decimal.Decimal) (*billing.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for id, inv := range m.invoices {
		if inv.TenantID == tenantID && inv.Period.Equal(period) {
			inv.Amount = amount
			inv.UpdatedAt = now
			m.invoices[id] = inv
			return &inv, nil
		}
	}

	inv := billing.Invoice{
		ID:        billing.InvoiceID(uuid.NewString()),
		TenantID:  tenantID,
		Period:    period,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.invoices[inv.ID] = inv
	return &inv, nil
}

func (m *Memory) AddInvoiceAmount(_ context.Context, id billing.InvoiceID, delta decimal.Decimal) (*billing.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, ok := m.invoices[id]
	if !ok {
		return nil, billing.ErrInvoiceNotFound
	}
	inv.Amount = inv.Amount.Add(delta)
	inv.UpdatedAt = time.Now().UTC()
	m.invoices[id] = inv
	return &inv, nil
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

func (m *Memory) AppendAdjustment(_ context.Context, a billing.Adjustment) (*billing.Adjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == "" {
		a.ID = billing.AdjustmentID(uuid.NewString())
	}
	a.CreatedAt = time.Now().UTC()
	m.adjustments[a.InvoiceID] = append(m.adjustments[a.InvoiceID], a)
	return &a, nil
}

func (m *Memory) ListAdjustmentsByInvoice(_ context.Context, invoiceID billing.InvoiceID) ([]billing.Adjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.Adjustment, len(m.adjustments[invoiceID]))
	copy(result, m.adjustments[invoiceID])
	return result, nil
}

// =============================================================================
// DEDUCTION LINKS
// =============================================================================

func (m *Memory) CreateDeductionLink(_ context.Context, link billing.DeductionLink) (*billing.DeductionLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.links {
		if existing.ParentMeterID == link.ParentMeterID && existing.ChildMeterID == link.ChildMeterID {
			return nil, billing.ErrDuplicateLink
		}
	}
	if link.ID == "" {
		link.ID = billing.DeductionLinkID(uuid.NewString())
	}
	link.CreatedAt = time.Now().UTC()
	m.links[link.ID] = link
	return &link, nil
}

func (m *Memory) FindLinksByParent(_ context.Context, meterID billing.MeterID) ([]billing.DeductionLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var links []billing.DeductionLink
	for _, link := range m.links {
		if link.ParentMeterID == meterID {
			links = append(links, link)
		}
	}
	return links, nil
}

func (m *Memory) FindLinksByChild(_ context.Context, meterID billing.MeterID) ([]billing.DeductionLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var links []billing.DeductionLink
	for _, link := range m.links {
		if link.ChildMeterID == meterID {
			links = append(links, link)
		}
	}
	return links, nil
}
