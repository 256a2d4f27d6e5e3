/*
scheduler.go - Automated monthly batch billing

PURPOSE:
  Periodically checks whether a new month has begun and, when it has,
  runs batch billing for the month that just closed. Every tenant with
  complete data gets its invoice; tenants with gaps are logged and left
  for manual follow-up.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Bills the PREVIOUS period: a period is only billable once its
    closing reading (the next period's reading) can exist
  - Skips periods it has already billed in this process lifetime;
    re-running after a restart is harmless because invoice generation
    is idempotent per (tenant, period)

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewBatchScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunBatch endpoint (manual batch billing)
  - billing/engine.go: Engine.RunBatch
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/wattwise/billing-engine/billing"
)

// BatchScheduler triggers batch billing when a month rolls over.
type BatchScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex

	lastBilled billing.Period
}

// NewBatchScheduler creates a new scheduler.
func NewBatchScheduler(handler *Handler) *BatchScheduler {
	return &BatchScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (bs *BatchScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.wg.Add(1)

	go bs.run()

	log.Printf("[Scheduler] Started with check interval: %v", bs.CheckInterval)
}

// Stop stops the scheduler.
func (bs *BatchScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (bs *BatchScheduler) run() {
	defer bs.wg.Done()

	// Run immediately on start
	bs.checkAndBill()

	for {
		select {
		case <-bs.ticker.C:
			bs.checkAndBill()
		case <-bs.stop:
			return
		}
	}
}

func (bs *BatchScheduler) checkAndBill() {
	ctx := context.Background()

	// The period to bill is the one that just closed.
	period := billing.PeriodOf(time.Now().UTC()).Prev()
	if bs.lastBilled.Equal(period) {
		return
	}

	log.Printf("[Scheduler] Running batch billing for %s", period)

	results, err := bs.Handler.Engine.RunBatch(ctx, period)
	if err != nil {
		log.Printf("[Scheduler] Batch run failed: %v", err)
		return
	}
	batchRuns.Inc()

	billed := 0
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			billingFailures.WithLabelValues(failureReason(res.Err)).Inc()
			log.Printf("[Scheduler] Tenant %q (%s) not billed: %v", res.TenantName, res.TenantID, res.Err)
			continue
		}
		billed++
		invoicesGenerated.Inc()
		amount, _ := res.Invoice.Amount.Float64()
		invoiceAmounts.Observe(amount)
	}

	bs.lastBilled = period
	log.Printf("[Scheduler] Completed %s: %d billed, %d failed", period, billed, failed)
}

// RunNow triggers an immediate check (for testing/admin).
func (bs *BatchScheduler) RunNow() {
	bs.checkAndBill()
}
