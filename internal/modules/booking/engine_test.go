package booking

import (
	"reflect"
	"testing"

	"charter/internal/types"
)

// Spec'd end-to-end scenarios for a single recompute pass.

func TestRecomputeMidnightScenario(t *testing.T) {
	snap := testSnapshot(true, 1)

	d := sedanDraft("23:30")
	Recompute(d, NewEditSet(), snap)
	if d.MidnightSurcharge != 2000 {
		t.Errorf("23:30 midnight surcharge = %v, want 2000", d.MidnightSurcharge)
	}
	if d.BasePrice != 12000 {
		t.Errorf("base price = %v, want 12000", d.BasePrice)
	}

	d = sedanDraft("14:00")
	Recompute(d, NewEditSet(), snap)
	if d.MidnightSurcharge != 0 {
		t.Errorf("14:00 midnight surcharge = %v, want 0", d.MidnightSurcharge)
	}
}

func TestRecomputeIndeterminateTimePreservesSurcharge(t *testing.T) {
	snap := testSnapshot(true, 1)
	d := sedanDraft("23:30")
	edits := NewEditSet()
	Recompute(d, edits, snap)
	if d.MidnightSurcharge != 2000 {
		t.Fatalf("setup: surcharge = %v, want 2000", d.MidnightSurcharge)
	}

	d.PickupTime = "garbage"
	Recompute(d, edits, snap)
	if d.MidnightSurcharge != 2000 {
		t.Errorf("indeterminate pickup time overwrote surcharge: %v", d.MidnightSurcharge)
	}
}

func TestRecomputeStopDefaultsPerOccurrence(t *testing.T) {
	snap := testSnapshot(true, 1)
	d := sedanDraft("12:00")
	d.DropoffStops[0].Location = "first stop"
	d.DropoffStops[1].Location = "second stop"

	quote := Recompute(d, NewEditSet(), snap)
	for i := 0; i < 2; i++ {
		if d.DropoffStops[i].Price != 500 {
			t.Errorf("dropoff slot %d price = %v, want 500", i, d.DropoffStops[i].Price)
		}
	}
	if quote.StopCharge.Aggregate != 1000 {
		t.Errorf("aggregate stop charge = %v, want 1000", quote.StopCharge.Aggregate)
	}
	if quote.StopsTotal != 1000 {
		t.Errorf("summed stop prices = %v, want 1000", quote.StopsTotal)
	}
}

func TestRecomputeStopDefaultsFlatFee(t *testing.T) {
	snap := testSnapshot(false, 1)
	d := sedanDraft("12:00")
	d.DropoffStops[0].Location = "first stop"
	d.DropoffStops[1].Location = "second stop"

	quote := Recompute(d, NewEditSet(), snap)
	// Each slot still shows the full magnitude; the aggregate charges it once.
	for i := 0; i < 2; i++ {
		if d.DropoffStops[i].Price != 500 {
			t.Errorf("dropoff slot %d price = %v, want 500", i, d.DropoffStops[i].Price)
		}
	}
	if quote.StopCharge.Aggregate != 500 {
		t.Errorf("flat aggregate = %v, want 500", quote.StopCharge.Aggregate)
	}
}

func TestRecomputeContractorStates(t *testing.T) {
	snap := testSnapshot(true, 1)
	edits := NewEditSet()

	// No contractor: job cost is user-owned and retained.
	d := sedanDraft("12:00")
	d.JobCost = 999
	Recompute(d, edits, snap)
	if d.JobCost != 999 {
		t.Errorf("user-owned job cost overwritten: %v", d.JobCost)
	}

	// Contractor set but vehicle type missing: forced to zero.
	d.ContractorID = "7"
	d.ServiceID = "3"
	d.VehicleTypeID = ""
	Recompute(d, edits, snap)
	if d.JobCost != 0 {
		t.Errorf("partial triple job cost = %v, want 0", d.JobCost)
	}

	// Full triple with a matrix match overwrites any prior value.
	d.VehicleTypeID = "2"
	d.JobCost = 111
	Recompute(d, edits, snap)
	if d.JobCost != 3500 {
		t.Errorf("matched job cost = %v, want 3500", d.JobCost)
	}

	// Full triple without a match: zero plus the informational miss flag.
	d.ServiceID = "999"
	quote := Recompute(d, edits, snap)
	if d.JobCost != 0 {
		t.Errorf("missed job cost = %v, want 0", d.JobCost)
	}
	if !quote.ContractorPricingMiss {
		t.Error("expected contractor pricing miss flag")
	}

	// Clearing the contractor retains the last value.
	d.ContractorID = ""
	d.JobCost = 3500
	Recompute(d, edits, snap)
	if d.JobCost != 3500 {
		t.Errorf("job cost after clearing contractor = %v, want 3500", d.JobCost)
	}
}

func TestRecomputeManualLocks(t *testing.T) {
	snap := testSnapshot(true, 1)
	edits := NewEditSet()

	d := sedanDraft("23:30")
	d.DropoffStops[0].Location = "first stop"
	d.DropoffStops[1].Location = "second stop"
	Recompute(d, edits, snap)

	// Direct edits lock their fields.
	d.MidnightSurcharge = 777
	edits.MarkManual(FieldMidnightSurcharge)
	d.DropoffStops[1].Price = 800
	edits.MarkManual(StopPriceField(LegDropoff, 1))

	Recompute(d, edits, snap)
	if d.MidnightSurcharge != 777 {
		t.Errorf("manual surcharge overwritten: %v", d.MidnightSurcharge)
	}
	if d.DropoffStops[1].Price != 800 {
		t.Errorf("manual stop price overwritten: %v", d.DropoffStops[1].Price)
	}
	if d.DropoffStops[0].Price != 500 {
		t.Errorf("auto stop price = %v, want 500", d.DropoffStops[0].Price)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	snap := testSnapshot(true, 1)
	d := sedanDraft("23:30")
	d.PickupStops[0].Location = "stop a"
	d.DropoffStops[0].Location = "stop b"
	d.DropoffStops[1].Location = "stop c"
	d.ExtraServices = []ExtraService{{Name: "Child Seat", Price: 300}}
	d.AdditionalDiscount = 1000
	edits := NewEditSet()

	firstQuote := Recompute(d, edits, snap)
	first := *d
	secondQuote := Recompute(d, edits, snap)

	if !reflect.DeepEqual(first, *d) {
		t.Errorf("draft drifted across passes:\nfirst:  %+v\nsecond: %+v", first, *d)
	}
	if firstQuote != secondQuote {
		t.Errorf("quote drifted across passes:\nfirst:  %+v\nsecond: %+v", firstQuote, secondQuote)
	}
}

func TestAggregateFinalFormula(t *testing.T) {
	d := &Draft{
		BasePrice:          12000,
		MidnightSurcharge:  2000,
		AdditionalDiscount: 1500,
		ExtraServices: []ExtraService{
			{Name: "Child Seat", Price: 300},
			{Name: "Meet & Greet", Price: 700},
		},
	}
	d.PickupStops[0] = StopSlot{Location: "a", Price: 500}
	d.DropoffStops[0] = StopSlot{Location: "b", Price: 500}
	d.DropoffStops[4] = StopSlot{Location: "c", Price: 500}

	total, negative := AggregateFinal(d)
	want := types.Money(12000 + 300 + 700 + 2000 + 1500 - 1500)
	if total != want {
		t.Errorf("final = %v, want %v", total, want)
	}
	if negative {
		t.Error("unexpected negative flag")
	}
}

func TestAggregateFinalNegativeAdvisory(t *testing.T) {
	d := &Draft{BasePrice: 1000, AdditionalDiscount: 2500}
	total, negative := AggregateFinal(d)
	if total != -1500 {
		t.Errorf("final = %v, want -1500 (not clamped)", total)
	}
	if !negative {
		t.Error("expected negative advisory flag")
	}
}

func TestRecomputeCashToCollectFollowsFinal(t *testing.T) {
	snap := testSnapshot(true, 1)
	d := sedanDraft("12:00")
	edits := NewEditSet()

	Recompute(d, edits, snap)
	if d.CashToCollect != d.FinalPrice {
		t.Errorf("cash to collect = %v, want %v", d.CashToCollect, d.FinalPrice)
	}

	d.CashToCollect = 5000
	edits.MarkManual(FieldCashToCollect)
	Recompute(d, edits, snap)
	if d.CashToCollect != 5000 {
		t.Errorf("manual cash to collect overwritten: %v", d.CashToCollect)
	}
}
