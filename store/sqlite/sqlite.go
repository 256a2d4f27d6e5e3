/*
Package sqlite provides a SQLite-backed implementation of the billing
store contracts.

PURPOSE:
  Implements billing.Store (tenants, meters, readings, tariffs, invoices,
  adjustments, deduction links) using SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES AND CONSTRAINTS:
  tenants:          Tenant records, unique name
  meters:           One tenant each; subtract_from is SET NULL on parent
                    deletion (past invoices keep their computed amounts)
  readings:         UNIQUE(meter_id, period) - the hard uniqueness invariant
  tariffs:          [period_start, period_end] windows, NULL end = open
  invoices:         UNIQUE(tenant_id, period) - regeneration upserts in place
  adjustments:      Append-only corrections referencing an invoice
  deduction_links:  UNIQUE(parent_meter_id, child_meter_id)

DECIMALS:
  All monetary and consumption values are stored as TEXT and parsed with
  shopspring/decimal. SQLite's numeric affinity would silently convert to
  float; TEXT keeps the values exact.

PERIODS:
  Stored as the first day of the month, "YYYY-MM-01". Lexicographic order
  on that format matches chronological order, so range predicates work.

WAL MODE:
  The database is opened with WAL for better concurrency: readers don't
  block, single writer, better crash recovery.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The engine itself is sequential
  per invocation; racing invoice regenerations resolve to last writer
  wins via the UNIQUE upsert, which the domain accepts.

USAGE:
  store, err := sqlite.New("./data/wattwise.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := billing.NewEngine(store, billing.FloorAdjustment{})

SEE ALSO:
  - billing/store.go: Interface definitions
  - billing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/wattwise/billing-engine/billing"
)

const periodFormat = "2006-01-02"

// Store implements billing.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meters (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		resource_type TEXT NOT NULL DEFAULT 'electricity',
		subtract_from TEXT REFERENCES meters(id) ON DELETE SET NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_meters_tenant ON meters(tenant_id);

	CREATE TABLE IF NOT EXISTS readings (
		id TEXT PRIMARY KEY,
		meter_id TEXT NOT NULL REFERENCES meters(id) ON DELETE CASCADE,
		period TEXT NOT NULL,
		value TEXT NOT NULL,
		manual_adjustment TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		UNIQUE(meter_id, period)
	);

	-- Hot path: reading lookups by (meter, period) pair use the unique index.

	CREATE TABLE IF NOT EXISTS tariffs (
		id TEXT PRIMARY KEY,
		meter_id TEXT NOT NULL REFERENCES meters(id) ON DELETE CASCADE,
		name TEXT NOT NULL DEFAULT 'Standard',
		rate TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tariffs_meter_start
		ON tariffs(meter_id, period_start DESC);

	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		period TEXT NOT NULL,
		amount TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(tenant_id, period)
	);

	CREATE TABLE IF NOT EXISTS adjustments (
		id TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_adjustments_invoice ON adjustments(invoice_id);

	CREATE TABLE IF NOT EXISTS deduction_links (
		id TEXT PRIMARY KEY,
		parent_meter_id TEXT NOT NULL REFERENCES meters(id) ON DELETE CASCADE,
		child_meter_id TEXT NOT NULL REFERENCES meters(id) ON DELETE CASCADE,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		UNIQUE(parent_meter_id, child_meter_id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TENANT STORE
// =============================================================================

// CreateTenant inserts a tenant. Names are unique.
func (s *Store) CreateTenant(ctx context.Context, name string) (*billing.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := billing.Tenant{
		ID:        billing.TenantID(uuid.NewString()),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tenants (id, name, created_at) VALUES (?, ?, ?)",
		t.ID, t.Name, t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("tenant %q already exists", name)
		}
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return &t, nil
}

func (s *Store) GetTenant(ctx context.Context, id billing.TenantID) (*billing.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t billing.Tenant
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM tenants WHERE id = ?", id,
	).Scan(&t.ID, &t.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]billing.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM tenants ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []billing.Tenant
	for rows.Next() {
		var t billing.Tenant
		var createdAt string
		if err := rows.Scan(&t.ID, &t.Name, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// =============================================================================
// METER STORE
// =============================================================================

// CreateMeter inserts a meter for a tenant.
func (s *Store) CreateMeter(ctx context.Context, meter billing.Meter) (*billing.Meter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if meter.ID == "" {
		meter.ID = billing.MeterID(uuid.NewString())
	}
	if meter.Resource == "" {
		meter.Resource = billing.ResourceElectricity
	}
	meter.CreatedAt = time.Now().UTC()

	var subtractFrom *string
	if meter.SubtractFromID != nil {
		v := string(*meter.SubtractFromID)
		subtractFrom = &v
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meters (id, tenant_id, name, resource_type, subtract_from, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		meter.ID, meter.TenantID, meter.Name, meter.Resource, subtractFrom,
		meter.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create meter: %w", err)
	}
	return &meter, nil
}

// DeleteMeter removes a meter. Children pointing at it via subtract_from
// are re-parented to NULL by the schema; past invoices are untouched.
func (s *Store) DeleteMeter(ctx context.Context, id billing.MeterID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM meters WHERE id = ?", id)
	return err
}

func (s *Store) GetMeter(ctx context.Context, id billing.MeterID) (*billing.Meter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, resource_type, subtract_from, created_at
		 FROM meters WHERE id = ?`, id)
	meter, err := scanMeter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return meter, nil
}

func (s *Store) ListMetersByTenant(ctx context.Context, tenantID billing.TenantID) ([]billing.Meter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, name, resource_type, subtract_from, created_at
		 FROM meters WHERE tenant_id = ? ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meters []billing.Meter
	for rows.Next() {
		meter, err := scanMeter(rows)
		if err != nil {
			return nil, err
		}
		meters = append(meters, *meter)
	}
	return meters, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeter(row rowScanner) (*billing.Meter, error) {
	var m billing.Meter
	var subtractFrom sql.NullString
	var createdAt string
	if err := row.Scan(&m.ID, &m.TenantID, &m.Name, &m.Resource, &subtractFrom, &createdAt); err != nil {
		return nil, err
	}
	if subtractFrom.Valid {
		id := billing.MeterID(subtractFrom.String)
		m.SubtractFromID = &id
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &m, nil
}

// =============================================================================
// READING STORE
// =============================================================================

func (s *Store) GetReadings(ctx context.Context, meterID billing.MeterID, from, to billing.Period) ([]billing.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, meter_id, period, value, manual_adjustment, created_at
		 FROM readings
		 WHERE meter_id = ? AND period >= ? AND period <= ?
		 ORDER BY period ASC`,
		meterID, formatPeriod(from), formatPeriod(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []billing.Reading
	for rows.Next() {
		var r billing.Reading
		var period, value, adjustment, createdAt string
		if err := rows.Scan(&r.ID, &r.MeterID, &period, &value, &adjustment, &createdAt); err != nil {
			return nil, err
		}
		r.Period = parsePeriod(period)
		r.Value = billing.MustParseDecimal(value)
		r.ManualAdjustment = billing.MustParseDecimal(adjustment)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// UpsertReading writes the reading for (meter, period), replacing any
// existing one. Re-entering a reading and regenerating the invoice is the
// supported correction path.
func (s *Store) UpsertReading(ctx context.Context, meterID billing.MeterID, period billing.Period, value, adjustment decimal.Decimal) (*billing.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := billing.Reading{
		ID:               billing.ReadingID(uuid.NewString()),
		MeterID:          meterID,
		Period:           period,
		Value:            value,
		ManualAdjustment: adjustment,
		CreatedAt:        time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (id, meter_id, period, value, manual_adjustment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(meter_id, period) DO UPDATE SET
			value = excluded.value,
			manual_adjustment = excluded.manual_adjustment`,
		r.ID, r.MeterID, formatPeriod(period), value.String(), adjustment.String(),
		r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert reading: %w", err)
	}

	// On conflict the stored row keeps its original id; read it back.
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM readings WHERE meter_id = ? AND period = ?",
		meterID, formatPeriod(period)).Scan(&r.ID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// =============================================================================
// TARIFF STORE
// =============================================================================

// FindTariffForPeriod resolves the active tariff. Overlapping windows are
// tolerated: all matches are fetched and billing.ResolveActiveTariff picks
// the winner, so the tie-break order is the same as the memory store's.
func (s *Store) FindTariffForPeriod(ctx context.Context, meterID billing.MeterID, on billing.Period) (*billing.Tariff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, meter_id, name, rate, period_start, period_end, created_at
		 FROM tariffs
		 WHERE meter_id = ? AND period_start <= ?
		   AND (period_end IS NULL OR period_end >= ?)`,
		meterID, formatPeriod(on), formatPeriod(on))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []billing.Tariff
	for rows.Next() {
		tariff, err := scanTariff(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *tariff)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	active, _ := billing.ResolveActiveTariff(candidates, on)
	return active, nil
}

func (s *Store) ListTariffsByMeter(ctx context.Context, meterID billing.MeterID) ([]billing.Tariff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, meter_id, name, rate, period_start, period_end, created_at
		 FROM tariffs WHERE meter_id = ? ORDER BY period_start ASC`, meterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tariffs []billing.Tariff
	for rows.Next() {
		tariff, err := scanTariff(rows)
		if err != nil {
			return nil, err
		}
		tariffs = append(tariffs, *tariff)
	}
	return tariffs, rows.Err()
}

// CreateTariff inserts a tariff and closes the meter's previously open
// tariff at the month before the new start, keeping windows disjoint.
func (s *Store) CreateTariff(ctx context.Context, t billing.Tariff) (*billing.Tariff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = billing.TariffID(uuid.NewString())
	}
	if t.Name == "" {
		t.Name = "Standard"
	}
	t.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE tariffs SET period_end = ?
		 WHERE meter_id = ? AND period_end IS NULL AND period_start < ?`,
		formatPeriod(t.PeriodStart.Prev()), t.MeterID, formatPeriod(t.PeriodStart))
	if err != nil {
		return nil, fmt.Errorf("failed to close open tariff: %w", err)
	}

	var periodEnd *string
	if t.PeriodEnd != nil {
		v := formatPeriod(*t.PeriodEnd)
		periodEnd = &v
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tariffs (id, meter_id, name, rate, period_start, period_end, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.MeterID, t.Name, t.Rate.String(), formatPeriod(t.PeriodStart), periodEnd,
		t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tariff: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTariffTemplates returns distinct (name, rate) pairs across all
// tariffs, offered as copy templates by the entry workflow.
func (s *Store) ListTariffTemplates(ctx context.Context) ([]billing.TariffTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT name, rate FROM tariffs ORDER BY name, rate")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []billing.TariffTemplate
	for rows.Next() {
		var name, rate string
		if err := rows.Scan(&name, &rate); err != nil {
			return nil, err
		}
		templates = append(templates, billing.TariffTemplate{
			Name: name,
			Rate: billing.MustParseDecimal(rate),
		})
	}
	return templates, rows.Err()
}

func scanTariff(row rowScanner) (*billing.Tariff, error) {
	var t billing.Tariff
	var rate, periodStart, createdAt string
	var periodEnd sql.NullString
	if err := row.Scan(&t.ID, &t.MeterID, &t.Name, &rate, &periodStart, &periodEnd, &createdAt); err != nil {
		return nil, err
	}
	t.Rate = billing.MustParseDecimal(rate)
	t.PeriodStart = parsePeriod(periodStart)
	if periodEnd.Valid {
		end := parsePeriod(periodEnd.String)
		t.PeriodEnd = &end
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &t, nil
}

// =============================================================================
// INVOICE STORE
// =============================================================================

func (s *Store) GetInvoice(ctx context.Context, id billing.InvoiceID) (*billing.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, period, amount, created_at, updated_at
		 FROM invoices WHERE id = ?`, id)
	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// GetInvoiceForPeriod fetches the invoice for (tenant, period), or nil.
func (s *Store) GetInvoiceForPeriod(ctx context.Context, tenantID billing.TenantID, period billing.Period) (*billing.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, period, amount, created_at, updated_at
		 FROM invoices WHERE tenant_id = ? AND period = ?`,
		tenantID, formatPeriod(period))
	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvoicesByTenant returns a tenant's invoices, newest period first.
func (s *Store) ListInvoicesByTenant(ctx context.Context, tenantID billing.TenantID) ([]billing.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, period, amount, created_at, updated_at
		 FROM invoices WHERE tenant_id = ? ORDER BY period DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []billing.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

// UpsertInvoice creates or overwrites the invoice for (tenant, period).
// The UNIQUE constraint makes regeneration idempotent; a racing writer
// simply wins last.
func (s *Store) UpsertInvoice(ctx context.Context, tenantID billing.TenantID, period billing.Period, amount decimal.Decimal) (*billing.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invoices (id, tenant_id, period, amount, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tenant_id, period) DO UPDATE SET
			amount = excluded.amount,
			updated_at = excluded.updated_at`,
		uuid.NewString(), tenantID, formatPeriod(period), amount.String(), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert invoice: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, period, amount, created_at, updated_at
		 FROM invoices WHERE tenant_id = ? AND period = ?`,
		tenantID, formatPeriod(period))
	return scanInvoice(row)
}

// AddInvoiceAmount increments the stored amount inside a transaction.
// Decimal arithmetic happens in Go; SQLite would coerce TEXT to float.
func (s *Store) AddInvoiceAmount(ctx context.Context, id billing.InvoiceID, delta decimal.Decimal) (*billing.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var amount string
	err = tx.QueryRowContext(ctx, "SELECT amount FROM invoices WHERE id = ?", id).Scan(&amount)
	if err == sql.ErrNoRows {
		return nil, billing.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}

	updated := billing.MustParseDecimal(amount).Add(delta)
	_, err = tx.ExecContext(ctx,
		"UPDATE invoices SET amount = ?, updated_at = ? WHERE id = ?",
		updated.String(), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, period, amount, created_at, updated_at
		 FROM invoices WHERE id = ?`, id)
	return scanInvoice(row)
}

func scanInvoice(row rowScanner) (*billing.Invoice, error) {
	var inv billing.Invoice
	var period, amount, createdAt, updatedAt string
	if err := row.Scan(&inv.ID, &inv.TenantID, &period, &amount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	inv.Period = parsePeriod(period)
	inv.Amount = billing.MustParseDecimal(amount)
	inv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	inv.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &inv, nil
}

// =============================================================================
// ADJUSTMENT STORE (append-only)
// =============================================================================

func (s *Store) AppendAdjustment(ctx context.Context, a billing.Adjustment) (*billing.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = billing.AdjustmentID(uuid.NewString())
	}
	a.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO adjustments (id, invoice_id, amount, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.InvoiceID, a.Amount.String(), a.Description,
		a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append adjustment: %w", err)
	}
	return &a, nil
}

func (s *Store) ListAdjustmentsByInvoice(ctx context.Context, invoiceID billing.InvoiceID) ([]billing.Adjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, invoice_id, amount, description, created_at
		 FROM adjustments WHERE invoice_id = ? ORDER BY created_at ASC, rowid ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adjustments []billing.Adjustment
	for rows.Next() {
		var a billing.Adjustment
		var amount, createdAt string
		if err := rows.Scan(&a.ID, &a.InvoiceID, &amount, &a.Description, &createdAt); err != nil {
			return nil, err
		}
		a.Amount = billing.MustParseDecimal(amount)
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		adjustments = append(adjustments, a)
	}
	return adjustments, rows.Err()
}

// =============================================================================
// DEDUCTION LINK STORE
// =============================================================================

// CreateDeductionLink inserts a link. Unique per (parent, child).
func (s *Store) CreateDeductionLink(ctx context.Context, link billing.DeductionLink) (*billing.DeductionLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if link.ID == "" {
		link.ID = billing.DeductionLinkID(uuid.NewString())
	}
	link.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deduction_links (id, parent_meter_id, child_meter_id, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		link.ID, link.ParentMeterID, link.ChildMeterID, link.Description,
		link.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: %s -> %s",
				billing.ErrDuplicateLink, link.ChildMeterID, link.ParentMeterID)
		}
		return nil, fmt.Errorf("failed to create deduction link: %w", err)
	}
	return &link, nil
}

func (s *Store) FindLinksByParent(ctx context.Context, meterID billing.MeterID) ([]billing.DeductionLink, error) {
	return s.queryLinks(ctx, "parent_meter_id", meterID)
}

func (s *Store) FindLinksByChild(ctx context.Context, meterID billing.MeterID) ([]billing.DeductionLink, error) {
	return s.queryLinks(ctx, "child_meter_id", meterID)
}

func (s *Store) queryLinks(ctx context.Context, column string, meterID billing.MeterID) ([]billing.DeductionLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_meter_id, child_meter_id, description, created_at
		 FROM deduction_links WHERE `+column+` = ?`, meterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []billing.DeductionLink
	for rows.Next() {
		var l billing.DeductionLink
		var createdAt string
		if err := rows.Scan(&l.ID, &l.ParentMeterID, &l.ChildMeterID, &l.Description, &createdAt); err != nil {
			return nil, err
		}
		l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		links = append(links, l)
	}
	return links, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"adjustments", "invoices", "deduction_links", "readings", "tariffs", "meters", "tenants"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func formatPeriod(p billing.Period) string {
	return p.Time().Format(periodFormat)
}

func parsePeriod(s string) billing.Period {
	t, _ := time.Parse(periodFormat, s)
	return billing.PeriodOf(t)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
