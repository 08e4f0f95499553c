// README: Booking draft aggregate, guarded fields, and the identity triple.
package booking

import (
	"fmt"

	"charter/internal/types"
)

// MaxStops is the number of extra-stop slots per leg.
const MaxStops = 5

type StopLeg string

const (
	LegPickup  StopLeg = "pickup"
	LegDropoff StopLeg = "dropoff"
)

// StopSlot is one extra-stop slot. An empty location means the slot is free.
type StopSlot struct {
	Location string      `json:"location"`
	Price    types.Money `json:"price"`
}

type ExtraService struct {
	Name  string      `json:"name"`
	Price types.Money `json:"price"`
}

// Draft is the in-memory booking being edited. It is owned by exactly one
// editing session and recomputed after every mutation.
type Draft struct {
	CustomerID    types.ID `json:"customer_id"`
	ServiceID     types.ID `json:"service_id"`
	ServiceName   string   `json:"service_name"`
	VehicleTypeID types.ID `json:"vehicle_type_id"`
	ContractorID  types.ID `json:"contractor_id"`

	PickupDate string `json:"pickup_date"`
	PickupTime string `json:"pickup_time"`

	PickupStops  [MaxStops]StopSlot `json:"pickup_stops"`
	DropoffStops [MaxStops]StopSlot `json:"dropoff_stops"`

	BasePrice          types.Money    `json:"base_price"`
	MidnightSurcharge  types.Money    `json:"midnight_surcharge"`
	AdditionalDiscount types.Money    `json:"additional_discount"`
	ExtraServices      []ExtraService `json:"extra_services,omitempty"`
	JobCost            types.Money    `json:"job_cost"`
	CashToCollect      types.Money    `json:"cash_to_collect"`
	FinalPrice         types.Money    `json:"final_price"`
}

// Identity is the triple whose change resets every Manual lock.
type Identity struct {
	CustomerID    types.ID `json:"customer_id"`
	ServiceID     types.ID `json:"service_id"`
	VehicleTypeID types.ID `json:"vehicle_type_id"`
}

func (d *Draft) Identity() Identity {
	return Identity{
		CustomerID:    d.CustomerID,
		ServiceID:     d.ServiceID,
		VehicleTypeID: d.VehicleTypeID,
	}
}

// Stops returns the slot array for a leg.
func (d *Draft) Stops(leg StopLeg) *[MaxStops]StopSlot {
	if leg == LegDropoff {
		return &d.DropoffStops
	}
	return &d.PickupStops
}

// StopCount counts occupied slots on one leg.
func (d *Draft) StopCount(leg StopLeg) int {
	n := 0
	for _, s := range d.Stops(leg) {
		if s.Location != "" {
			n++
		}
	}
	return n
}

// EffectiveStopCount is the count both surcharge and per-slot defaults key on:
// pickup and dropoff legs are evaluated symmetrically.
func (d *Draft) EffectiveStopCount() int {
	p := d.StopCount(LegPickup)
	q := d.StopCount(LegDropoff)
	if q > p {
		return q
	}
	return p
}

// JobCostLocked reports whether job_cost is system-owned. It is locked exactly
// while a contractor is selected.
func (d *Draft) JobCostLocked() bool {
	return d.ContractorID != ""
}

// Field identifies one guarded draft field in the edit-tracking set.
type Field string

const (
	FieldBasePrice         Field = "base_price"
	FieldMidnightSurcharge Field = "midnight_surcharge"
	FieldCashToCollect     Field = "cash_to_collect"
)

// StopPriceField is the fine-grained tracking id for one stop-price slot.
func StopPriceField(leg StopLeg, index int) Field {
	return Field(fmt.Sprintf("%s_stop_price_%d", leg, index))
}
