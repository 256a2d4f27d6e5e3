/*
policy.go - Deduction policy strategies

PURPOSE:
  Two incompatible deduction mechanisms coexist in this system's history
  and both are preserved behind one interface; the deployment picks one.

  StrictSubtraction (submeter variant):
    Meters form a parent<-child "subtract from" graph. Every meter is
    billed independently, then each parent's consumption is reduced by the
    SUM of its children's consumptions and recosted at the PARENT's own
    rate. A negative remainder is an error, never clamped: a child cannot
    consume more than its parent.

    The parent's rate is used even though the subtracted consumption
    physically occurred on the child's meter: the subtraction neutralizes
    double-billing at whichever rate the parent is charged.

  FloorAdjustment (manual-adjustment variant):
    The operator records the deduction on the reading itself
    (Reading.ManualAdjustment, optionally suggested from a DeductionLink).
    Billing subtracts it from that one meter's raw delta and floors a
    negative result to zero. No cross-meter recomputation.

ORDER INDEPENDENCE:
  With multiple children of one parent, all child consumptions are summed
  before the parent is finalized. Sequential subtraction would give the
  same total only if no intermediate step tripped the negative check, so
  summing first is required, not an optimization.
*/
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DEDUCTION POLICY - strategy interface
// =============================================================================

// DeductionPolicy decides how submeter consumption is kept from being
// billed twice.
type DeductionPolicy interface {
	// Name identifies the policy in config and logs.
	Name() string

	// ReadingAdjustment returns the amount subtracted from the raw delta
	// when billing a single meter.
	ReadingAdjustment(r Reading) decimal.Decimal

	// FloorNegativeConsumption reports whether a post-adjustment
	// consumption below zero is clamped to zero instead of kept.
	FloorNegativeConsumption() bool

	// Resolve finalizes per-meter results after every meter has been
	// billed independently. May replace entries in the map.
	Resolve(results map[MeterID]*MeterBillingResult) error
}

// ParseDeductionPolicy maps a config string to a policy.
func ParseDeductionPolicy(name string) (DeductionPolicy, error) {
	switch name {
	case "strict_subtraction":
		return StrictSubtraction{}, nil
	case "floor_adjustment", "":
		return FloorAdjustment{}, nil
	default:
		return nil, fmt.Errorf("unknown deduction policy %q", name)
	}
}

// =============================================================================
// STRICT SUBTRACTION
// =============================================================================

type StrictSubtraction struct{}

func (StrictSubtraction) Name() string { return "strict_subtraction" }

// Per-reading adjustments are not part of this variant.
func (StrictSubtraction) ReadingAdjustment(Reading) decimal.Decimal { return decimal.Zero }

func (StrictSubtraction) FloorNegativeConsumption() bool { return false }

// Resolve recomputes each parent's consumption and cost once all submeter
// consumptions are known. Children are accumulated per parent first so the
// processing order of siblings cannot change the outcome.
func (StrictSubtraction) Resolve(results map[MeterID]*MeterBillingResult) error {
	deducted := make(map[MeterID]decimal.Decimal)
	for _, res := range results {
		parentID := res.Meter.SubtractFromID
		if parentID == nil {
			continue
		}
		if _, ok := results[*parentID]; !ok {
			// Parent billed to a different tenant (or re-parented away);
			// nothing to deduct within this invoice.
			continue
		}
		deducted[*parentID] = deducted[*parentID].Add(res.Consumption)
	}

	for parentID, childSum := range deducted {
		parent := results[parentID]
		remaining := parent.Consumption.Sub(childSum)
		if remaining.IsNegative() {
			return &SubtractionError{
				ParentMeterID:     parent.Meter.ID,
				ParentMeterName:   parent.Meter.Name,
				ParentConsumption: parent.Consumption,
				ChildrenConsumed:  childSum,
			}
		}
		parent.Consumption = remaining
		parent.Cost = Cost(remaining, parent.Tariff.Rate)
	}
	return nil
}

// =============================================================================
// FLOOR ADJUSTMENT
// =============================================================================

type FloorAdjustment struct{}

func (FloorAdjustment) Name() string { return "floor_adjustment" }

func (FloorAdjustment) ReadingAdjustment(r Reading) decimal.Decimal {
	return r.ManualAdjustment
}

// The deduction amount was decided at data-entry time; an adjustment larger
// than the delta zeroes the bill rather than failing it.
func (FloorAdjustment) FloorNegativeConsumption() bool { return true }

// No cross-meter recomputation: each reading already carries its deduction.
func (FloorAdjustment) Resolve(map[MeterID]*MeterBillingResult) error { return nil }
