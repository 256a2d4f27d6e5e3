package billing

import (
	"context"
	"fmt"
)

// =============================================================================
// COMPLETENESS CHECK - pre-flight dual of GenerateInvoice
// =============================================================================

// Completeness reports every missing fact that would make GenerateInvoice
// fail for the tenant and period: the period's reading, the previous
// period's reading, and an active tariff, independently per meter.
//
// Data gaps are returned as issues, never errors - this is the mechanism
// for giving a human actionable feedback before attempting a real
// generation. Only store I/O failures return an error.
func (e *Engine) Completeness(ctx context.Context, tenantID TenantID, period Period) ([]Issue, error) {
	tenant, err := e.Tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return []Issue{{
			Kind:    IssueTenantNotFound,
			Period:  period,
			Message: fmt.Sprintf("tenant %s not found", tenantID),
		}}, nil
	}

	meters, err := e.Meters.ListMetersByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}

	prev := period.Prev()
	var issues []Issue
	for _, meter := range meters {
		current, err := e.readingAt(ctx, meter.ID, period)
		if err != nil {
			return nil, err
		}
		if current == nil {
			issues = append(issues, missingReadingIssue(meter, period))
		}

		previous, err := e.readingAt(ctx, meter.ID, prev)
		if err != nil {
			return nil, err
		}
		if previous == nil {
			issues = append(issues, missingReadingIssue(meter, prev))
		}

		tariff, err := e.Tariffs.FindTariffForPeriod(ctx, meter.ID, period)
		if err != nil {
			return nil, err
		}
		if tariff == nil {
			issues = append(issues, Issue{
				Kind:      IssueMissingTariff,
				MeterID:   meter.ID,
				MeterName: meter.Name,
				Period:    period,
				Message:   fmt.Sprintf("no active tariff on %s for meter %q", period, meter.Name),
			})
		}
	}
	return issues, nil
}

func missingReadingIssue(meter Meter, period Period) Issue {
	return Issue{
		Kind:      IssueMissingReading,
		MeterID:   meter.ID,
		MeterName: meter.Name,
		Period:    period,
		Message:   fmt.Sprintf("no reading for %s for meter %q", period, meter.Name),
	}
}
