package billing

import "log"

// =============================================================================
// TARIFF RESOLUTION - exactly one rate per (meter, date)
// =============================================================================

// ResolveActiveTariff selects the tariff effective on the given period:
// PeriodStart <= on and (PeriodEnd == nil or PeriodEnd >= on).
//
// The data model does not structurally forbid overlapping windows, so when
// several tariffs match the most recently started one wins; among equal
// starts the most recently created, then the greater ID. The total order
// keeps resolution deterministic however the rows arrive. The conflict
// flag reports that duplicates were found; callers treat it as a
// data-integrity warning, not a failure.
func ResolveActiveTariff(tariffs []Tariff, on Period) (active *Tariff, conflict bool) {
	for i := range tariffs {
		t := &tariffs[i]
		if !t.Active(on) {
			continue
		}
		if active == nil {
			active = t
			continue
		}
		conflict = true
		if supersedes(t, active) {
			active = t
		}
	}
	if conflict {
		log.Printf("[Tariff] Warning: overlapping tariff windows for meter %s on %s, using %q (%s)",
			active.MeterID, on, active.Name, active.ID)
	}
	return active, conflict
}

func supersedes(t, active *Tariff) bool {
	if !t.PeriodStart.Equal(active.PeriodStart) {
		return t.PeriodStart.After(active.PeriodStart)
	}
	if !t.CreatedAt.Equal(active.CreatedAt) {
		return t.CreatedAt.After(active.CreatedAt)
	}
	return t.ID > active.ID
}
