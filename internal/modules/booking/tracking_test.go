package booking

import (
	"encoding/json"
	"testing"
)

func TestEditSetTransitions(t *testing.T) {
	e := NewEditSet()

	if e.IsManual(FieldBasePrice) {
		t.Error("fresh set: base_price should be Auto")
	}

	e.MarkManual(FieldBasePrice)
	e.MarkManual(StopPriceField(LegPickup, 2))
	if !e.IsManual(FieldBasePrice) || !e.IsManual(StopPriceField(LegPickup, 2)) {
		t.Error("marked fields should be Manual")
	}
	if e.IsManual(StopPriceField(LegDropoff, 2)) {
		t.Error("dropoff slot 2 was never edited")
	}

	// Removing a stop recycles only that slot.
	e.ResetField(StopPriceField(LegPickup, 2))
	if e.IsManual(StopPriceField(LegPickup, 2)) {
		t.Error("recycled slot should be Auto")
	}
	if !e.IsManual(FieldBasePrice) {
		t.Error("per-slot reset must not touch other fields")
	}

	// An identity change resets everything.
	e.MarkManual(FieldMidnightSurcharge)
	e.Reset()
	if e.Len() != 0 {
		t.Errorf("after reset: %d fields still Manual", e.Len())
	}
}

func TestEditSetJSONRoundTrip(t *testing.T) {
	e := NewEditSet()
	e.MarkManual(FieldMidnightSurcharge)
	e.MarkManual(StopPriceField(LegDropoff, 4))

	payload, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored := NewEditSet()
	if err := json.Unmarshal(payload, restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !restored.IsManual(FieldMidnightSurcharge) || !restored.IsManual(StopPriceField(LegDropoff, 4)) {
		t.Error("round trip lost Manual state")
	}
	if restored.Len() != 2 {
		t.Errorf("round trip length = %d, want 2", restored.Len())
	}

	// Stable output: marshal twice, same bytes.
	again, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal again: %v", err)
	}
	if string(payload) != string(again) {
		t.Errorf("marshal not stable: %s vs %s", payload, again)
	}
}
