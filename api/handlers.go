/*
handlers.go - HTTP API handlers for the billing engine

PURPOSE:
  Exposes the billing engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Tenants:
    GET    /api/tenants                       List all tenants
    POST   /api/tenants                       Create tenant
    GET    /api/tenants/{id}                  Get tenant details
    GET    /api/tenants/{id}/meters           List tenant's meters
    POST   /api/tenants/{id}/meters           Create meter
    GET    /api/tenants/{id}/invoices         Invoice history
    POST   /api/tenants/{id}/invoices         Generate invoice for a period
    GET    /api/tenants/{id}/completeness     Pre-flight missing-data check

  Meters:
    DELETE /api/meters/{id}                   Delete meter
    POST   /api/meters/{id}/readings          Upsert reading for a period
    GET    /api/meters/{id}/tariffs           List meter's tariffs
    POST   /api/meters/{id}/tariffs           Create tariff (closes open one)
    GET    /api/meters/{id}/suggestions       Deduction suggestions for a period

  Tariffs:
    GET    /api/tariffs/templates             Distinct (name, rate) pairs

  Invoices:
    GET    /api/invoices/{id}                 Get invoice
    POST   /api/invoices/{id}/adjustments     Append manual adjustment
    GET    /api/invoices/{id}/adjustments     List adjustments

  Links:
    POST   /api/links                         Create deduction link

  Admin:
    POST   /api/admin/batch                   Batch-bill all tenants

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 422: Missing reading or tariff for the requested period
  - 409: Negative remainder under strict subtraction
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - metrics.go: Prometheus counters updated here
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/wattwise/billing-engine/billing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the HTTP layer needs from persistence: the engine
// contracts plus the entity-management operations the engine itself never
// calls. Both the SQLite store and the in-memory store satisfy it.
type Store interface {
	billing.Store

	CreateTenant(ctx context.Context, name string) (*billing.Tenant, error)
	CreateMeter(ctx context.Context, meter billing.Meter) (*billing.Meter, error)
	DeleteMeter(ctx context.Context, id billing.MeterID) error
	CreateDeductionLink(ctx context.Context, link billing.DeductionLink) (*billing.DeductionLink, error)
	GetInvoiceForPeriod(ctx context.Context, tenantID billing.TenantID, period billing.Period) (*billing.Invoice, error)
	ListInvoicesByTenant(ctx context.Context, tenantID billing.TenantID) ([]billing.Invoice, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  Store
	Engine *billing.Engine
}

// NewHandler creates a new handler over the given store and policy.
func NewHandler(store Store, policy billing.DeductionPolicy) *Handler {
	return &Handler{
		Store:  store,
		Engine: billing.NewEngine(store, policy),
	}
}

// =============================================================================
// TENANT HANDLERS
// =============================================================================

// ListTenants returns all tenants.
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Store.ListTenants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tenants", err)
		return
	}

	dtos := make([]TenantDTO, len(tenants))
	for i, t := range tenants {
		dtos[i] = toTenantDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTenant creates a new tenant.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Tenant name is required", nil)
		return
	}

	tenant, err := h.Store.CreateTenant(r.Context(), req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create tenant", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTenantDTO(*tenant))
}

// GetTenant returns a single tenant.
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id := billing.TenantID(chi.URLParam(r, "id"))

	tenant, err := h.Store.GetTenant(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tenant", err)
		return
	}
	if tenant == nil {
		writeError(w, http.StatusNotFound, "Tenant not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTenantDTO(*tenant))
}

// =============================================================================
// METER HANDLERS
// =============================================================================

// ListMeters returns the meters owned by a tenant.
func (h *Handler) ListMeters(w http.ResponseWriter, r *http.Request) {
	tenantID := billing.TenantID(chi.URLParam(r, "id"))

	meters, err := h.Store.ListMetersByTenant(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list meters", err)
		return
	}

	dtos := make([]MeterDTO, len(meters))
	for i, m := range meters {
		dtos[i] = toMeterDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateMeter creates a meter under a tenant.
func (h *Handler) CreateMeter(w http.ResponseWriter, r *http.Request) {
	tenantID := billing.TenantID(chi.URLParam(r, "id"))

	var req CreateMeterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Meter name is required", nil)
		return
	}

	ctx := r.Context()
	tenant, err := h.Store.GetTenant(ctx, tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tenant", err)
		return
	}
	if tenant == nil {
		writeError(w, http.StatusNotFound, "Tenant not found", nil)
		return
	}

	meter := billing.Meter{
		TenantID: tenantID,
		Name:     req.Name,
		Resource: billing.ResourceType(req.Resource),
	}
	if req.SubtractFrom != nil {
		parentID := billing.MeterID(*req.SubtractFrom)
		parent, err := h.Store.GetMeter(ctx, parentID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get parent meter", err)
			return
		}
		if parent == nil {
			writeError(w, http.StatusNotFound, "Parent meter not found", nil)
			return
		}
		meter.SubtractFromID = &parentID
	}

	created, err := h.Store.CreateMeter(ctx, meter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create meter", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMeterDTO(*created))
}

// DeleteMeter removes a meter. Past invoices keep their computed amounts;
// meters subtracting from the deleted one become ordinary meters.
func (h *Handler) DeleteMeter(w http.ResponseWriter, r *http.Request) {
	id := billing.MeterID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteMeter(r.Context(), id); err != nil {
		if errors.Is(err, billing.ErrMeterNotFound) {
			writeError(w, http.StatusNotFound, "Meter not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete meter", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// READING HANDLERS
// =============================================================================

// UpsertReading records or replaces a meter's reading for a period.
func (h *Handler) UpsertReading(w http.ResponseWriter, r *http.Request) {
	meterID := billing.MeterID(chi.URLParam(r, "id"))

	var req UpsertReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := billing.ParsePeriod(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period format (use YYYY-MM)", err)
		return
	}
	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid reading value", err)
		return
	}
	adjustment := decimal.Zero
	if req.ManualAdjustment != "" {
		adjustment, err = decimal.NewFromString(req.ManualAdjustment)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid manual adjustment", err)
			return
		}
	}
	if adjustment.IsNegative() {
		writeError(w, http.StatusBadRequest, "Manual adjustment must not be negative", nil)
		return
	}

	ctx := r.Context()
	meter, err := h.Store.GetMeter(ctx, meterID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get meter", err)
		return
	}
	if meter == nil {
		writeError(w, http.StatusNotFound, "Meter not found", nil)
		return
	}

	reading, err := h.Store.UpsertReading(ctx, meterID, period, value, adjustment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save reading", err)
		return
	}
	writeJSON(w, http.StatusOK, toReadingDTO(*reading))
}

// =============================================================================
// TARIFF HANDLERS
// =============================================================================

// ListTariffs returns all tariffs for a meter, newest first.
func (h *Handler) ListTariffs(w http.ResponseWriter, r *http.Request) {
	meterID := billing.MeterID(chi.URLParam(r, "id"))

	tariffs, err := h.Store.ListTariffsByMeter(r.Context(), meterID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tariffs", err)
		return
	}

	dtos := make([]TariffDTO, len(tariffs))
	for i, t := range tariffs {
		dtos[i] = toTariffDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTariff stores a new tariff for a meter. The meter's previously
// open-ended tariff is closed at the period before the new start.
func (h *Handler) CreateTariff(w http.ResponseWriter, r *http.Request) {
	meterID := billing.MeterID(chi.URLParam(r, "id"))

	var req CreateTariffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate", err)
		return
	}
	start, err := billing.ParsePeriod(req.PeriodStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_start format (use YYYY-MM)", err)
		return
	}

	tariff := billing.Tariff{
		MeterID:     meterID,
		Name:        req.Name,
		Rate:        rate,
		PeriodStart: start,
	}
	if req.PeriodEnd != nil {
		end, err := billing.ParsePeriod(*req.PeriodEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period_end format (use YYYY-MM)", err)
			return
		}
		if end.Before(start) {
			writeError(w, http.StatusBadRequest, "period_end must not precede period_start", nil)
			return
		}
		tariff.PeriodEnd = &end
	}

	ctx := r.Context()
	meter, err := h.Store.GetMeter(ctx, meterID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get meter", err)
		return
	}
	if meter == nil {
		writeError(w, http.StatusNotFound, "Meter not found", nil)
		return
	}

	created, err := h.Store.CreateTariff(ctx, tariff)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create tariff", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTariffDTO(*created))
}

// ListTariffTemplates returns the distinct (name, rate) pairs across all
// tariffs, offered as copy templates by the entry workflow.
func (h *Handler) ListTariffTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Store.ListTariffTemplates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tariff templates", err)
		return
	}

	dtos := make([]TariffTemplateDTO, len(templates))
	for i, t := range templates {
		dtos[i] = TariffTemplateDTO{Name: t.Name, Rate: t.Rate.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// INVOICE HANDLERS
// =============================================================================

// GenerateInvoice bills all of a tenant's meters for one period and
// upserts the consolidated invoice. Regenerating for the same period
// overwrites the amount; it never creates a second invoice.
func (h *Handler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	tenantID := billing.TenantID(chi.URLParam(r, "id"))

	var req struct {
		Period string `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, err := billing.ParsePeriod(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period format (use YYYY-MM)", err)
		return
	}

	invoice, breakdown, err := h.Engine.GenerateInvoice(r.Context(), tenantID, period)
	if err != nil {
		billingFailures.WithLabelValues(failureReason(err)).Inc()
		writeBillingError(w, err)
		return
	}

	invoicesGenerated.Inc()
	amount, _ := invoice.Amount.Float64()
	invoiceAmounts.Observe(amount)

	byTariff := make(map[string]string)
	for name, total := range billing.AggregateCostsByTariff(breakdown) {
		byTariff[name] = total.String()
	}

	writeJSON(w, http.StatusOK, GenerateInvoiceResponse{
		Invoice:   toInvoiceDTO(*invoice),
		Breakdown: toBreakdownDTO(breakdown),
		ByTariff:  byTariff,
	})
}

// GetInvoice returns a single invoice by ID.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id := billing.InvoiceID(chi.URLParam(r, "id"))

	invoice, err := h.Store.GetInvoice(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get invoice", err)
		return
	}
	if invoice == nil {
		writeError(w, http.StatusNotFound, "Invoice not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(*invoice))
}

// ListInvoices returns a tenant's invoices in period order.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	tenantID := billing.TenantID(chi.URLParam(r, "id"))

	invoices, err := h.Store.ListInvoicesByTenant(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list invoices", err)
		return
	}

	dtos := make([]InvoiceDTO, len(invoices))
	for i, inv := range invoices {
		dtos[i] = toInvoiceDTO(inv)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADJUSTMENT HANDLERS
// =============================================================================

// AddAdjustment appends a signed correction to an invoice.
func (h *Handler) AddAdjustment(w http.ResponseWriter, r *http.Request) {
	invoiceID := billing.InvoiceID(chi.URLParam(r, "id"))

	var req AddAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid adjustment amount", err)
		return
	}

	adj, err := h.Engine.AddAdjustment(r.Context(), invoiceID, amount, req.Description)
	if err != nil {
		if errors.Is(err, billing.ErrInvoiceNotFound) {
			writeError(w, http.StatusNotFound, "Invoice not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to add adjustment", err)
		return
	}

	adjustmentsApplied.Inc()
	writeJSON(w, http.StatusCreated, toAdjustmentDTO(*adj))
}

// ListAdjustments returns an invoice's adjustment history.
func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	invoiceID := billing.InvoiceID(chi.URLParam(r, "id"))

	adjustments, err := h.Engine.ListAdjustments(r.Context(), invoiceID)
	if err != nil {
		if errors.Is(err, billing.ErrInvoiceNotFound) {
			writeError(w, http.StatusNotFound, "Invoice not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to list adjustments", err)
		return
	}

	dtos := make([]AdjustmentDTO, len(adjustments))
	for i, a := range adjustments {
		dtos[i] = toAdjustmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// COMPLETENESS HANDLER
// =============================================================================

// Completeness reports which readings and tariffs are still missing before
// a tenant/period can be billed. Always 200; an empty list means ready.
func (h *Handler) Completeness(w http.ResponseWriter, r *http.Request) {
	tenantID := billing.TenantID(chi.URLParam(r, "id"))

	period, err := billing.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period format (use YYYY-MM)", err)
		return
	}

	issues, err := h.Engine.Completeness(r.Context(), tenantID, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check completeness", err)
		return
	}
	writeJSON(w, http.StatusOK, toIssueDTOs(issues))
}

// =============================================================================
// DEDUCTION LINK HANDLERS
// =============================================================================

// CreateDeductionLink declares a (parent, child) meter pair for adjustment
// suggestions at data entry.
func (h *Handler) CreateDeductionLink(w http.ResponseWriter, r *http.Request) {
	var req CreateDeductionLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ParentMeterID == req.ChildMeterID {
		writeError(w, http.StatusBadRequest, "A meter cannot deduct from itself", nil)
		return
	}

	ctx := r.Context()
	for _, id := range []string{req.ParentMeterID, req.ChildMeterID} {
		meter, err := h.Store.GetMeter(ctx, billing.MeterID(id))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get meter", err)
			return
		}
		if meter == nil {
			writeError(w, http.StatusNotFound, "Meter not found", nil)
			return
		}
	}

	link, err := h.Store.CreateDeductionLink(ctx, billing.DeductionLink{
		ParentMeterID: billing.MeterID(req.ParentMeterID),
		ChildMeterID:  billing.MeterID(req.ChildMeterID),
		Description:   req.Description,
	})
	if err != nil {
		if errors.Is(err, billing.ErrDuplicateLink) {
			writeError(w, http.StatusConflict, "Deduction link already exists", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create deduction link", err)
		return
	}
	writeJSON(w, http.StatusCreated, DeductionLinkDTO{
		ID:          string(link.ID),
		ParentMeter: string(link.ParentMeterID),
		ChildMeter:  string(link.ChildMeterID),
		Description: link.Description,
	})
}

// SuggestDeductions returns, per linked child of a meter, the child's
// consumption in the requested period as a proposed manual adjustment.
func (h *Handler) SuggestDeductions(w http.ResponseWriter, r *http.Request) {
	meterID := billing.MeterID(chi.URLParam(r, "id"))

	period, err := billing.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period format (use YYYY-MM)", err)
		return
	}

	suggestions, err := h.Engine.SuggestDeductions(r.Context(), meterID, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute suggestions", err)
		return
	}

	dtos := make([]DeductionSuggestionDTO, len(suggestions))
	for i, s := range suggestions {
		dtos[i] = DeductionSuggestionDTO{
			ChildMeterID:     string(s.Link.ChildMeterID),
			Description:      s.Link.Description,
			ChildConsumption: s.ChildConsumption.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunBatch bills every tenant for one period. A single tenant's failure is
// reported in its result entry; the batch always completes.
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period string `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, err := billing.ParsePeriod(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period format (use YYYY-MM)", err)
		return
	}

	results, err := h.Engine.RunBatch(r.Context(), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Batch run failed", err)
		return
	}
	batchRuns.Inc()

	dtos := make([]BatchResultDTO, len(results))
	for i, res := range results {
		dto := BatchResultDTO{
			TenantID:   string(res.TenantID),
			TenantName: res.TenantName,
		}
		if res.Invoice != nil {
			inv := toInvoiceDTO(*res.Invoice)
			dto.Invoice = &inv
			invoicesGenerated.Inc()
			amount, _ := res.Invoice.Amount.Float64()
			invoiceAmounts.Observe(amount)
		}
		if res.Err != nil {
			dto.Error = res.Err.Error()
			billingFailures.WithLabelValues(failureReason(res.Err)).Inc()
		}
		dtos[i] = dto
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ERROR MAPPING AND JSON HELPERS
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// classifyBillingError buckets an engine error for metrics labels.
func classifyBillingError(err error) string {
	switch {
	case errors.Is(err, billing.ErrTenantNotFound):
		return "tenant_not_found"
	case errors.Is(err, billing.ErrMissingReading):
		return "missing_reading"
	case errors.Is(err, billing.ErrMissingTariff):
		return "missing_tariff"
	case errors.Is(err, billing.ErrNegativeSubtraction):
		return "negative_subtraction"
	default:
		return "internal"
	}
}

// writeBillingError maps engine errors to HTTP statuses:
//   - not-found lookups        -> 404
//   - missing reading/tariff   -> 422 (fixable by entering the data)
//   - negative subtraction     -> 409 (data conflict needing review)
//   - everything else          -> 500
func writeBillingError(w http.ResponseWriter, err error) {
	switch {
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case billing.IsMissingData(err):
		writeError(w, http.StatusUnprocessableEntity, "Billing data incomplete", err)
	case errors.Is(err, billing.ErrNegativeSubtraction):
		writeError(w, http.StatusConflict, "Submeter consumption exceeds parent", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to generate invoice", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
