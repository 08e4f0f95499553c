// README: Recompute pass: resolves candidate values, applies them through the
// edit-tracking set, and derives totals.
package booking

import (
	"charter/internal/modules/pricing"
	"charter/internal/types"
)

// Quote is the breakdown produced by every recompute pass. StopCharge mirrors
// the additional-stops component for display; its aggregate is informational
// and is not added to FinalPrice on top of the per-slot prices.
type Quote struct {
	BasePrice          types.Money `json:"base_price"`
	ExtraServicesTotal types.Money `json:"extra_services_total"`
	MidnightSurcharge  types.Money `json:"midnight_surcharge"`
	StopsTotal         types.Money `json:"stops_total"`
	StopCharge         StopCharge  `json:"stop_charge"`
	AdditionalDiscount types.Money `json:"additional_discount"`
	JobCost            types.Money `json:"job_cost"`
	FinalPrice         types.Money `json:"final_price"`
	NegativeTotal      bool        `json:"negative_total"`

	// ContractorPricingMiss is set when a fully specified contractor triple
	// found no matrix entry. Informational, not an error.
	ContractorPricingMiss bool `json:"-"`
}

// Recompute runs one full pass over the draft: base price, conditional
// surcharges, per-slot stop defaults, contractor cost, and totals. Fields in
// Manual state are never touched, and Auto fields are only written when the
// computed value differs from the stored one. The pass is deterministic and
// idempotent for a fixed draft and snapshot.
func Recompute(d *Draft, edits *EditSet, snap *pricing.Snapshot) Quote {
	if !edits.IsManual(FieldBasePrice) {
		base, ok := snap.CustomerServicePrice(d.CustomerID, d.ServiceName, d.VehicleTypeID)
		if !ok {
			base = 0
		}
		if d.BasePrice != base {
			d.BasePrice = base
		}
	}

	if !edits.IsManual(FieldMidnightSurcharge) {
		res := TimeWindowSurcharge(d, snap)
		// An indeterminate pickup time preserves the stored value.
		if !res.Indeterminate && d.MidnightSurcharge != res.Amount {
			d.MidnightSurcharge = res.Amount
		}
	}

	stopCharge := AdditionalStopsCharge(d, snap)
	for _, leg := range []StopLeg{LegPickup, LegDropoff} {
		slots := d.Stops(leg)
		for i := range slots {
			if slots[i].Location == "" {
				// A free slot carries no charge.
				if !edits.IsManual(StopPriceField(leg, i)) && slots[i].Price != 0 {
					slots[i].Price = 0
				}
				continue
			}
			if edits.IsManual(StopPriceField(leg, i)) {
				continue
			}
			if slots[i].Price != stopCharge.PerStop {
				slots[i].Price = stopCharge.PerStop
			}
		}
	}

	quote := Quote{StopCharge: stopCharge}
	switch {
	case d.ContractorID == "":
		// job_cost is user-owned; the last value is retained.
	case d.ServiceID == "" || d.VehicleTypeID == "":
		if d.JobCost != 0 {
			d.JobCost = 0
		}
	default:
		cost, ok := snap.ContractorCost(d.ContractorID, d.ServiceID, d.VehicleTypeID)
		if !ok {
			cost = 0
			quote.ContractorPricingMiss = true
		}
		if d.JobCost != cost {
			d.JobCost = cost
		}
	}

	final, negative := AggregateFinal(d)
	if d.FinalPrice != final {
		d.FinalPrice = final
	}
	if !edits.IsManual(FieldCashToCollect) && d.CashToCollect != final {
		d.CashToCollect = final
	}

	quote.BasePrice = d.BasePrice
	quote.ExtraServicesTotal = extraServicesTotal(d)
	quote.MidnightSurcharge = d.MidnightSurcharge
	quote.StopsTotal = stopsTotal(d)
	quote.AdditionalDiscount = d.AdditionalDiscount
	quote.JobCost = d.JobCost
	quote.FinalPrice = final
	quote.NegativeTotal = negative
	return quote
}

// AggregateFinal derives the final price from the current draft fields only:
// base + extra services + midnight surcharge + stop prices - discount. The
// boolean flags a negative total; it is advisory and never clamped.
func AggregateFinal(d *Draft) (types.Money, bool) {
	total := d.BasePrice + extraServicesTotal(d) + d.MidnightSurcharge + stopsTotal(d) - d.AdditionalDiscount
	return total, total < 0
}

func extraServicesTotal(d *Draft) types.Money {
	var sum types.Money
	for _, e := range d.ExtraServices {
		sum += e.Price
	}
	return sum
}

func stopsTotal(d *Draft) types.Money {
	var sum types.Money
	for _, s := range d.PickupStops {
		sum += s.Price
	}
	for _, s := range d.DropoffStops {
		sum += s.Price
	}
	return sum
}
