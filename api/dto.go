/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DECIMALS:
  All monetary and consumption values cross the wire as strings. JSON
  numbers are floats; rendering a Decimal through one would reintroduce
  exactly the drift the engine exists to avoid.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/wattwise/billing-engine/billing"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type TenantDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

type MeterDTO struct {
	ID           string  `json:"id"`
	TenantID     string  `json:"tenant_id"`
	Name         string  `json:"name"`
	Resource     string  `json:"resource"`
	SubtractFrom *string `json:"subtract_from,omitempty"`
}

type ReadingDTO struct {
	ID               string `json:"id"`
	MeterID          string `json:"meter_id"`
	Period           string `json:"period"`
	Value            string `json:"value"`
	ManualAdjustment string `json:"manual_adjustment"`
}

type TariffDTO struct {
	ID          string  `json:"id"`
	MeterID     string  `json:"meter_id"`
	Name        string  `json:"name"`
	Rate        string  `json:"rate"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   *string `json:"period_end,omitempty"`
}

type TariffTemplateDTO struct {
	Name string `json:"name"`
	Rate string `json:"rate"`
}

type InvoiceDTO struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Period   string `json:"period"`
	Amount   string `json:"amount"`
}

type AdjustmentDTO struct {
	ID          string `json:"id"`
	InvoiceID   string `json:"invoice_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// MeterBillingResultDTO is one line of the per-meter breakdown.
type MeterBillingResultDTO struct {
	MeterID        string `json:"meter_id"`
	MeterName      string `json:"meter_name"`
	TariffName     string `json:"tariff_name"`
	Rate           string `json:"rate"`
	Consumption    string `json:"consumption"`
	Cost           string `json:"cost"`
	RawConsumption string `json:"raw_consumption"`
	Adjustment     string `json:"adjustment"`
}

// GenerateInvoiceResponse carries the invoice plus its full breakdown for
// the reporting/export collaborators.
type GenerateInvoiceResponse struct {
	Invoice   InvoiceDTO                       `json:"invoice"`
	Breakdown map[string]MeterBillingResultDTO `json:"breakdown"`
	ByTariff  map[string]string                `json:"by_tariff"`
}

type IssueDTO struct {
	Kind      string `json:"kind"`
	MeterID   string `json:"meter_id,omitempty"`
	MeterName string `json:"meter_name,omitempty"`
	Period    string `json:"period"`
	Message   string `json:"message"`
}

type DeductionLinkDTO struct {
	ID          string `json:"id"`
	ParentMeter string `json:"parent_meter_id"`
	ChildMeter  string `json:"child_meter_id"`
	Description string `json:"description"`
}

type DeductionSuggestionDTO struct {
	ChildMeterID     string `json:"child_meter_id"`
	Description      string `json:"description"`
	ChildConsumption string `json:"child_consumption"`
}

type BatchResultDTO struct {
	TenantID   string      `json:"tenant_id"`
	TenantName string      `json:"tenant_name"`
	Invoice    *InvoiceDTO `json:"invoice,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreateTenantRequest struct {
	Name string `json:"name"`
}

type CreateMeterRequest struct {
	Name         string  `json:"name"`
	Resource     string  `json:"resource"`
	SubtractFrom *string `json:"subtract_from,omitempty"`
}

type UpsertReadingRequest struct {
	Period           string `json:"period"`
	Value            string `json:"value"`
	ManualAdjustment string `json:"manual_adjustment,omitempty"`
}

type CreateTariffRequest struct {
	Name        string  `json:"name"`
	Rate        string  `json:"rate"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   *string `json:"period_end,omitempty"`
}

type AddAdjustmentRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type CreateDeductionLinkRequest struct {
	ParentMeterID string `json:"parent_meter_id"`
	ChildMeterID  string `json:"child_meter_id"`
	Description   string `json:"description"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toTenantDTO(t billing.Tenant) TenantDTO {
	return TenantDTO{
		ID:        string(t.ID),
		Name:      t.Name,
		CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toMeterDTO(m billing.Meter) MeterDTO {
	dto := MeterDTO{
		ID:       string(m.ID),
		TenantID: string(m.TenantID),
		Name:     m.Name,
		Resource: string(m.Resource),
	}
	if m.SubtractFromID != nil {
		v := string(*m.SubtractFromID)
		dto.SubtractFrom = &v
	}
	return dto
}

func toReadingDTO(r billing.Reading) ReadingDTO {
	return ReadingDTO{
		ID:               string(r.ID),
		MeterID:          string(r.MeterID),
		Period:           r.Period.String(),
		Value:            r.Value.String(),
		ManualAdjustment: r.ManualAdjustment.String(),
	}
}

func toTariffDTO(t billing.Tariff) TariffDTO {
	dto := TariffDTO{
		ID:          string(t.ID),
		MeterID:     string(t.MeterID),
		Name:        t.Name,
		Rate:        t.Rate.String(),
		PeriodStart: t.PeriodStart.String(),
	}
	if t.PeriodEnd != nil {
		v := t.PeriodEnd.String()
		dto.PeriodEnd = &v
	}
	return dto
}

func toInvoiceDTO(inv billing.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:       string(inv.ID),
		TenantID: string(inv.TenantID),
		Period:   inv.Period.String(),
		Amount:   inv.Amount.String(),
	}
}

func toAdjustmentDTO(a billing.Adjustment) AdjustmentDTO {
	return AdjustmentDTO{
		ID:          string(a.ID),
		InvoiceID:   string(a.InvoiceID),
		Amount:      a.Amount.String(),
		Description: a.Description,
		CreatedAt:   a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toBreakdownDTO(results map[billing.MeterID]billing.MeterBillingResult) map[string]MeterBillingResultDTO {
	breakdown := make(map[string]MeterBillingResultDTO, len(results))
	for id, res := range results {
		breakdown[string(id)] = MeterBillingResultDTO{
			MeterID:        string(res.Meter.ID),
			MeterName:      res.Meter.Name,
			TariffName:     res.Tariff.Name,
			Rate:           res.Tariff.Rate.String(),
			Consumption:    res.Consumption.String(),
			Cost:           res.Cost.String(),
			RawConsumption: res.RawConsumption.String(),
			Adjustment:     res.Adjustment.String(),
		}
	}
	return breakdown
}

func toIssueDTOs(issues []billing.Issue) []IssueDTO {
	dtos := make([]IssueDTO, 0, len(issues))
	for _, issue := range issues {
		dtos = append(dtos, IssueDTO{
			Kind:      string(issue.Kind),
			MeterID:   string(issue.MeterID),
			MeterName: issue.MeterName,
			Period:    issue.Period.String(),
			Message:   issue.Message,
		})
	}
	return dtos
}
