package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// METRICS - Prometheus counters for the billing flows, served at /metrics
// =============================================================================

var invoicesGenerated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wattwise_invoices_generated_total",
	Help: "Invoices generated or regenerated successfully.",
})

var billingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wattwise_billing_failures_total",
	Help: "Failed invoice generations by reason.",
}, []string{"reason"})

var invoiceAmounts = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "wattwise_invoice_amount",
	Help:    "Distribution of generated invoice totals.",
	Buckets: prometheus.ExponentialBuckets(10, 4, 8),
})

var batchRuns = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wattwise_batch_runs_total",
	Help: "Completed batch billing runs.",
})

var adjustmentsApplied = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wattwise_adjustments_applied_total",
	Help: "Manual adjustments appended to invoices.",
})

// failureReason buckets an error for the billing_failures counter.
func failureReason(err error) string {
	if err == nil {
		return "none"
	}
	return classifyBillingError(err)
}
