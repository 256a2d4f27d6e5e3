package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattwise/billing-engine/billing"
	"github.com/wattwise/billing-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedTenantWithMeter(t *testing.T, store *sqlite.Store) (billing.TenantID, billing.MeterID) {
	t.Helper()
	ctx := context.Background()

	tenant, err := store.CreateTenant(ctx, "Alice")
	require.NoError(t, err)
	meter, err := store.CreateMeter(ctx, billing.Meter{
		TenantID: tenant.ID,
		Name:     "Office",
		Resource: billing.ResourceElectricity,
	})
	require.NoError(t, err)
	return tenant.ID, meter.ID
}

// =============================================================================
// TENANTS
// =============================================================================

func TestTenant_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateTenant(ctx, "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := store.GetTenant(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.Name)

	missing, err := store.GetTenant(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing, "unknown tenant is nil, not an error")
}

func TestListTenants_SortedByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Charlie", "Alice", "Bob"} {
		_, err := store.CreateTenant(ctx, name)
		require.NoError(t, err)
	}

	tenants, err := store.ListTenants(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 3)
	assert.Equal(t, "Alice", tenants[0].Name)
	assert.Equal(t, "Bob", tenants[1].Name)
	assert.Equal(t, "Charlie", tenants[2].Name)
}

// =============================================================================
// METERS
// =============================================================================

func TestMeter_SubtractFromSetNullOnParentDelete(t *testing.T) {
	// Deleting a parent meter re-parents nothing: children simply become
	// ordinary meters. Past invoices keep their computed amounts.
	store := newTestStore(t)
	ctx := context.Background()

	tenantID, parentID := seedTenantWithMeter(t, store)
	child, err := store.CreateMeter(ctx, billing.Meter{
		TenantID:       tenantID,
		Name:           "Unit 1",
		Resource:       billing.ResourceElectricity,
		SubtractFromID: &parentID,
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteMeter(ctx, parentID))

	got, err := store.GetMeter(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.SubtractFromID)

	gone, err := store.GetMeter(ctx, parentID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestListMetersByTenant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tenantID, _ := seedTenantWithMeter(t, store)
	other, err := store.CreateTenant(ctx, "Bob")
	require.NoError(t, err)
	_, err = store.CreateMeter(ctx, billing.Meter{TenantID: other.ID, Name: "Elsewhere", Resource: billing.ResourceWater})
	require.NoError(t, err)

	meters, err := store.ListMetersByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, meters, 1)
	assert.Equal(t, "Office", meters[0].Name)
}

// =============================================================================
// READINGS
// =============================================================================

func TestUpsertReading_OnePerMeterPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, meterID := seedTenantWithMeter(t, store)
	july := billing.NewPeriod(2024, time.July)

	first, err := store.UpsertReading(ctx, meterID, july, dec("4100"), decimal.Zero)
	require.NoError(t, err)

	// Re-entering the same period replaces the value in place.
	second, err := store.UpsertReading(ctx, meterID, july, dec("4150"), dec("10"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	readings, err := store.GetReadings(ctx, meterID, july, july)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.True(t, readings[0].Value.Equal(dec("4150")), "got %s", readings[0].Value)
	assert.True(t, readings[0].ManualAdjustment.Equal(dec("10")))
}

func TestGetReadings_RangeOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, meterID := seedTenantWithMeter(t, store)

	// Insert out of order; the store returns period order.
	for _, r := range []struct {
		month time.Month
		value string
	}{{time.July, "300"}, {time.May, "100"}, {time.June, "200"}} {
		_, err := store.UpsertReading(ctx, meterID, billing.NewPeriod(2024, r.month), dec(r.value), decimal.Zero)
		require.NoError(t, err)
	}

	readings, err := store.GetReadings(ctx, meterID,
		billing.NewPeriod(2024, time.May), billing.NewPeriod(2024, time.July))
	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.True(t, readings[0].Value.Equal(dec("100")))
	assert.True(t, readings[2].Value.Equal(dec("300")))

	// Range bounds are inclusive on both ends.
	readings, err = store.GetReadings(ctx, meterID,
		billing.NewPeriod(2024, time.June), billing.NewPeriod(2024, time.June))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.True(t, readings[0].Value.Equal(dec("200")))
}

func TestReading_DecimalPrecisionPreserved(t *testing.T) {
	// Values are stored as TEXT; nothing may pass through a float.
	store := newTestStore(t)
	ctx := context.Background()
	_, meterID := seedTenantWithMeter(t, store)
	july := billing.NewPeriod(2024, time.July)

	exact := dec("12345678901234567.123456789")
	_, err := store.UpsertReading(ctx, meterID, july, exact, decimal.Zero)
	require.NoError(t, err)

	readings, err := store.GetReadings(ctx, meterID, july, july)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.True(t, readings[0].Value.Equal(exact), "got %s", readings[0].Value)
}

// =============================================================================
// TARIFFS
// =============================================================================

func TestCreateTariff_ClosesOpenWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, meterID := seedTenantWithMeter(t, store)

	_, err := store.CreateTariff(ctx, billing.Tariff{
		MeterID:     meterID,
		Name:        "Standard",
		Rate:        dec("10"),
		PeriodStart: billing.NewPeriod(2024, time.January),
	})
	require.NoError(t, err)

	_, err = store.CreateTariff(ctx, billing.Tariff{
		MeterID:     meterID,
		Name:        "Raised",
		Rate:        dec("20"),
		PeriodStart: billing.NewPeriod(2024, time.July),
	})
	require.NoError(t, err)

	tariffs, err := store.ListTariffsByMeter(ctx, meterID)
	require.NoError(t, err)
	require.Len(t, tariffs, 2)

	// The old tariff now ends the month before the new one starts.
	require.NotNil(t, tariffs[0].PeriodEnd)
	assert.True(t, tariffs[0].PeriodEnd.Equal(billing.NewPeriod(2024, time.June)))
	assert.Nil(t, tariffs[1].PeriodEnd)
}

func TestFindTariffForPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, meterID := seedTenantWithMeter(t, store)

	_, err := store.CreateTariff(ctx, billing.Tariff{
		MeterID:     meterID,
		Rate:        dec("10"),
		PeriodStart: billing.NewPeriod(2024, time.January),
	})
	require.NoError(t, err)
	_, err = store.CreateTariff(ctx, billing.Tariff{
		MeterID:     meterID,
		Rate:        dec("20"),
		PeriodStart: billing.NewPeriod(2024, time.July),
	})
	require.NoError(t, err)

	tests := []struct {
		on   billing.Period
		want string
	}{
		{billing.NewPeriod(2024, time.June), "10"},
		{billing.NewPeriod(2024, time.July), "20"},
		{billing.NewPeriod(2024, time.December), "20"},
	}
	for _, tt := range tests {
		tariff, err := store.FindTariffForPeriod(ctx, meterID, tt.on)
		require.NoError(t, err)
		require.NotNil(t, tariff, "no tariff at %s", tt.on)
		assert.True(t, tariff.Rate.Equal(dec(tt.want)), "at %s got %s", tt.on, tariff.Rate)
	}

	// Before any window begins there is no tariff.
	tariff, err := store.FindTariffForPeriod(ctx, meterID, billing.NewPeriod(2023, time.December))
	require.NoError(t, err)
	assert.Nil(t, tariff)
}

func TestFindTariffForPeriod_EqualStartDeterministic(t *testing.T) {
	// Two open windows sharing a period_start (a rate correction that did
	// not close the mistyped one). Resolution must return the same tariff
	// on every call, not whatever row the engine scans first.
	store := newTestStore(t)
	ctx := context.Background()
	_, meterID := seedTenantWithMeter(t, store)

	start := billing.NewPeriod(2024, time.January)
	_, err := store.CreateTariff(ctx, billing.Tariff{
		MeterID:     meterID,
		Rate:        dec("10"),
		PeriodStart: start,
	})
	require.NoError(t, err)
	_, err = store.CreateTariff(ctx, billing.Tariff{
		MeterID:     meterID,
		Rate:        dec("20"),
		PeriodStart: start,
	})
	require.NoError(t, err)

	first, err := store.FindTariffForPeriod(ctx, meterID, billing.NewPeriod(2024, time.June))
	require.NoError(t, err)
	require.NotNil(t, first)
	for i := 0; i < 50; i++ {
		tariff, err := store.FindTariffForPeriod(ctx, meterID, billing.NewPeriod(2024, time.June))
		require.NoError(t, err)
		require.NotNil(t, tariff)
		assert.Equal(t, first.ID, tariff.ID, "resolution flipped on call %d", i)
	}
}

func TestListTariffTemplates_Distinct(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenantID, meterA := seedTenantWithMeter(t, store)
	meterB, err := store.CreateMeter(ctx, billing.Meter{TenantID: tenantID, Name: "Warehouse", Resource: billing.ResourceHeat})
	require.NoError(t, err)

	// Same (name, rate) on two meters collapses to one template.
	for _, meterID := range []billing.MeterID{meterA, meterB.ID} {
		_, err := store.CreateTariff(ctx, billing.Tariff{
			MeterID:     meterID,
			Name:        "Standard",
			Rate:        dec("10.5"),
			PeriodStart: billing.NewPeriod(2024, time.January),
		})
		require.NoError(t, err)
	}
	_, err = store.CreateTariff(ctx, billing.Tariff{
		MeterID:     meterA,
		Name:        "Night",
		Rate:        dec("5"),
		PeriodStart: billing.NewPeriod(2024, time.July),
	})
	require.NoError(t, err)

	templates, err := store.ListTariffTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "Night", templates[0].Name)
	assert.Equal(t, "Standard", templates[1].Name)
}

// =============================================================================
// INVOICES
// =============================================================================

func TestUpsertInvoice_SingleRowPerTenantPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenantID, _ := seedTenantWithMeter(t, store)
	july := billing.NewPeriod(2024, time.July)

	first, err := store.UpsertInvoice(ctx, tenantID, july, dec("1050"))
	require.NoError(t, err)

	second, err := store.UpsertInvoice(ctx, tenantID, july, dec("1100"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "regeneration must not create a second row")
	assert.True(t, second.Amount.Equal(dec("1100")))

	invoices, err := store.ListInvoicesByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.True(t, invoices[0].Amount.Equal(dec("1100")))
}

func TestGetInvoiceForPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenantID, _ := seedTenantWithMeter(t, store)
	july := billing.NewPeriod(2024, time.July)

	created, err := store.UpsertInvoice(ctx, tenantID, july, dec("1050"))
	require.NoError(t, err)

	got, err := store.GetInvoiceForPeriod(ctx, tenantID, july)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	none, err := store.GetInvoiceForPeriod(ctx, tenantID, july.Next())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestAddInvoiceAmount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenantID, _ := seedTenantWithMeter(t, store)
	july := billing.NewPeriod(2024, time.July)

	invoice, err := store.UpsertInvoice(ctx, tenantID, july, dec("1050"))
	require.NoError(t, err)

	updated, err := store.AddInvoiceAmount(ctx, invoice.ID, dec("50"))
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(dec("1100")), "got %s", updated.Amount)

	updated, err = store.AddInvoiceAmount(ctx, invoice.ID, dec("-0.01"))
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(dec("1099.99")), "got %s", updated.Amount)

	_, err = store.AddInvoiceAmount(ctx, "missing", dec("1"))
	assert.ErrorIs(t, err, billing.ErrInvoiceNotFound)
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

func TestAdjustments_AppendOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenantID, _ := seedTenantWithMeter(t, store)

	invoice, err := store.UpsertInvoice(ctx, tenantID, billing.NewPeriod(2024, time.July), dec("1050"))
	require.NoError(t, err)

	for _, a := range []struct {
		amount      string
		description string
	}{{"50", "correction"}, {"-30", "goodwill"}} {
		_, err := store.AppendAdjustment(ctx, billing.Adjustment{
			InvoiceID:   invoice.ID,
			Amount:      dec(a.amount),
			Description: a.description,
		})
		require.NoError(t, err)
	}

	adjustments, err := store.ListAdjustmentsByInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, adjustments, 2)
	assert.True(t, adjustments[0].Amount.Equal(dec("50")))
	assert.Equal(t, "goodwill", adjustments[1].Description)
}

// =============================================================================
// DEDUCTION LINKS
// =============================================================================

func TestDeductionLinks_UniquePerPair(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenantID, parentID := seedTenantWithMeter(t, store)
	child, err := store.CreateMeter(ctx, billing.Meter{TenantID: tenantID, Name: "Unit 1", Resource: billing.ResourceElectricity})
	require.NoError(t, err)

	link := billing.DeductionLink{ParentMeterID: parentID, ChildMeterID: child.ID, Description: "shared main"}
	_, err = store.CreateDeductionLink(ctx, link)
	require.NoError(t, err)

	link.ID = ""
	_, err = store.CreateDeductionLink(ctx, link)
	assert.ErrorIs(t, err, billing.ErrDuplicateLink)

	byParent, err := store.FindLinksByParent(ctx, parentID)
	require.NoError(t, err)
	require.Len(t, byParent, 1)
	assert.Equal(t, child.ID, byParent[0].ChildMeterID)

	byChild, err := store.FindLinksByChild(ctx, child.ID)
	require.NoError(t, err)
	require.Len(t, byChild, 1)
	assert.Equal(t, parentID, byChild[0].ParentMeterID)
}

// =============================================================================
// ENGINE OVER SQLITE
// =============================================================================

func TestEngine_EndToEndOnSQLite(t *testing.T) {
	// The same flow the memory-store tests cover, against the real schema.
	store := newTestStore(t)
	ctx := context.Background()
	engine := billing.NewEngine(store, billing.FloorAdjustment{})

	tenantID, meterID := seedTenantWithMeter(t, store)
	_, err := store.CreateTariff(ctx, billing.Tariff{
		MeterID:     meterID,
		Rate:        dec("10.5"),
		PeriodStart: billing.NewPeriod(2024, time.January),
	})
	require.NoError(t, err)

	june := billing.NewPeriod(2024, time.June)
	july := billing.NewPeriod(2024, time.July)
	_, err = store.UpsertReading(ctx, meterID, june, dec("4000"), decimal.Zero)
	require.NoError(t, err)
	_, err = store.UpsertReading(ctx, meterID, july, dec("4100"), decimal.Zero)
	require.NoError(t, err)

	invoice, breakdown, err := engine.GenerateInvoice(ctx, tenantID, july)
	require.NoError(t, err)
	assert.True(t, invoice.Amount.Equal(dec("1050")), "got %s", invoice.Amount)
	require.Len(t, breakdown, 1)

	// Adjust and verify the stored amount moved with the ledger.
	_, err = engine.AddAdjustment(ctx, invoice.ID, dec("50"), "correction")
	require.NoError(t, err)

	stored, err := store.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(dec("1100")), "got %s", stored.Amount)
}

func TestReset_ClearsAllTables(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenantID, _ := seedTenantWithMeter(t, store)

	require.NoError(t, store.Reset(ctx))

	tenants, err := store.ListTenants(ctx)
	require.NoError(t, err)
	assert.Empty(t, tenants)

	meters, err := store.ListMetersByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Empty(t, meters)
}
