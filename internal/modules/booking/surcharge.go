// README: Conditional surcharge calculators: time-window and additional-stops.
package booking

import (
	"charter/internal/modules/pricing"
	"charter/internal/types"
)

// TimeResult is the outcome of the time-window calculator. Indeterminate means
// the pickup time could not be parsed and the stored surcharge must be
// preserved rather than overwritten.
type TimeResult struct {
	Amount        types.Money
	Indeterminate bool
}

// TimeWindowSurcharge computes the midnight-style surcharge for the draft.
// Magnitude resolution short-circuits first: with no pricing at either tier
// the result is a definite zero regardless of the pickup time.
func TimeWindowSurcharge(d *Draft, snap *pricing.Snapshot) TimeResult {
	anc, ok := snap.FindAncillary(pricing.ConditionTimeWindow)
	if !ok {
		return TimeResult{}
	}
	magnitude := snap.AncillaryMagnitude(anc, d.CustomerID, d.VehicleTypeID)
	if magnitude <= 0 {
		return TimeResult{}
	}
	at, err := pricing.ParseTimeOfDay(d.PickupTime)
	if err != nil {
		return TimeResult{Indeterminate: true}
	}
	if anc.Condition.Window.Contains(at) {
		return TimeResult{Amount: magnitude}
	}
	return TimeResult{}
}

// StopCharge is the additional-stops component. PerStop is the default price
// assigned to each occupied, unlocked stop slot; Aggregate is the activated
// surcharge amount. The two differ under the flat-fee policy: every slot still
// shows the full magnitude while the aggregate charges it once.
type StopCharge struct {
	PerStop   types.Money `json:"per_stop"`
	Aggregate types.Money `json:"aggregate"`
}

// AdditionalStopsCharge computes the stop-count surcharge for the draft.
func AdditionalStopsCharge(d *Draft, snap *pricing.Snapshot) StopCharge {
	anc, ok := snap.FindAncillary(pricing.ConditionAdditionalStops)
	if !ok {
		return StopCharge{}
	}
	magnitude := snap.AncillaryMagnitude(anc, d.CustomerID, d.VehicleTypeID)
	if magnitude <= 0 {
		return StopCharge{}
	}
	charge := StopCharge{PerStop: magnitude}
	count := d.EffectiveStopCount()
	if count < anc.Condition.Threshold.TriggerCount {
		return charge
	}
	if anc.PerOccurrence {
		charge.Aggregate = magnitude * types.Money(count)
	} else {
		charge.Aggregate = magnitude
	}
	return charge
}
