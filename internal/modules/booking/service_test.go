package booking

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"charter/internal/modules/pricing"
	"charter/internal/types"
)

// Sessions round-trip through JSON so the store exercises the same
// serialization path as the Redis-backed one.
func encodeSession(s *Session) ([]byte, error) {
	return json.Marshal(s)
}

func decodeSession(payload []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, err
	}
	if s.Edits == nil {
		s.Edits = NewEditSet()
	}
	return &s, nil
}

// memSessionStore is an in-memory SessionStore for tests.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[types.ID][]byte
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[types.ID][]byte)}
}

func (m *memSessionStore) Put(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, err := encodeSession(s)
	if err != nil {
		return err
	}
	m.sessions[s.ID] = payload
	return nil
}

func (m *memSessionStore) Get(ctx context.Context, id types.ID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return decodeSession(payload)
}

func (m *memSessionStore) Delete(ctx context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// staticSnapshot satisfies SnapshotSource with a fixed fixture.
type staticSnapshot struct{ snap *pricing.Snapshot }

func (s staticSnapshot) Snapshot(ctx context.Context) (*pricing.Snapshot, error) {
	return s.snap, nil
}

// memArchive satisfies BookingArchive in memory.
type memArchive struct {
	mu     sync.Mutex
	saved  map[types.ID]Draft
	nextID int
}

func newMemArchive() *memArchive {
	return &memArchive{saved: make(map[types.ID]Draft)}
}

func (a *memArchive) Save(ctx context.Context, d *Draft) (types.ID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	id := types.ID(rune('a' + a.nextID - 1))
	a.saved[id] = *d
	return id, nil
}

func (a *memArchive) Load(ctx context.Context, id types.ID) (*Draft, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, ok := a.saved[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func newTestService(t *testing.T, snap *pricing.Snapshot) (*Service, *memArchive) {
	t.Helper()
	archive := newMemArchive()
	svc := NewService(newMemSessionStore(), staticSnapshot{snap}, archive, nil, nil)
	return svc, archive
}

func sessionSetup(t *testing.T, svc *Service) types.ID {
	t.Helper()
	ctx := context.Background()
	sess, _, err := svc.Create(ctx, CreateCommand{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	_, _, err = svc.Apply(ctx, sess.ID, Mutation{
		CustomerID:    idPtr("42"),
		ServiceID:     idPtr("svc-airport"),
		ServiceName:   strPtr("Airport Transfer"),
		VehicleTypeID: idPtr("sedan"),
		PickupTime:    strPtr("23:30"),
	})
	if err != nil {
		t.Fatalf("seed identity: %v", err)
	}
	return sess.ID
}

func idPtr(s types.ID) *types.ID          { return &s }
func strPtr(s string) *string             { return &s }
func moneyPtr(m types.Money) *types.Money { return &m }

func TestServiceRecomputesOnMutation(t *testing.T) {
	svc, _ := newTestService(t, testSnapshot(true, 1))
	ctx := context.Background()
	id := sessionSetup(t, svc)

	sess, quote, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess.Draft.BasePrice != 12000 {
		t.Errorf("base price = %v, want 12000", sess.Draft.BasePrice)
	}
	if sess.Draft.MidnightSurcharge != 2000 {
		t.Errorf("midnight surcharge = %v, want 2000", sess.Draft.MidnightSurcharge)
	}
	if quote.FinalPrice != 14000 {
		t.Errorf("final = %v, want 14000", quote.FinalPrice)
	}
}

func TestServiceManualStopPriceSurvivesTimeChange(t *testing.T) {
	svc, _ := newTestService(t, testSnapshot(true, 1))
	ctx := context.Background()
	id := sessionSetup(t, svc)

	for _, loc := range []string{"first", "second", "third"} {
		if _, _, err := svc.AddStop(ctx, id, AddStopCommand{Leg: LegDropoff, Location: loc}); err != nil {
			t.Fatalf("add stop %s: %v", loc, err)
		}
	}

	// Direct edit of slot 2 locks it.
	if _, _, err := svc.Apply(ctx, id, Mutation{
		StopPrices: []StopPriceEdit{{Leg: LegDropoff, Index: 2, Price: 800}},
	}); err != nil {
		t.Fatalf("edit stop price: %v", err)
	}

	// Changing pickup_time alone must leave slot 2 untouched.
	sess, _, err := svc.Apply(ctx, id, Mutation{PickupTime: strPtr("14:00")})
	if err != nil {
		t.Fatalf("change pickup time: %v", err)
	}
	if sess.Draft.DropoffStops[2].Price != 800 {
		t.Errorf("manual slot 2 price = %v, want 800", sess.Draft.DropoffStops[2].Price)
	}
	if sess.Draft.MidnightSurcharge != 0 {
		t.Errorf("surcharge after 14:00 = %v, want 0", sess.Draft.MidnightSurcharge)
	}

	// Changing the vehicle type resets slot 2 to Auto and recomputes it.
	sess, _, err = svc.Apply(ctx, id, Mutation{VehicleTypeID: idPtr("van")})
	if err != nil {
		t.Fatalf("change vehicle type: %v", err)
	}
	// No stop pricing exists for vans, so the recycled slot drops to zero.
	if sess.Draft.DropoffStops[2].Price != 0 {
		t.Errorf("slot 2 after identity change = %v, want 0", sess.Draft.DropoffStops[2].Price)
	}
	if sess.Edits.Len() != 0 {
		t.Errorf("edit set after identity change: %d fields Manual", sess.Edits.Len())
	}
}

func TestServiceRemoveStopRecyclesSlot(t *testing.T) {
	svc, _ := newTestService(t, testSnapshot(true, 1))
	ctx := context.Background()
	id := sessionSetup(t, svc)

	if _, _, err := svc.AddStop(ctx, id, AddStopCommand{Leg: LegPickup, Location: "somewhere"}); err != nil {
		t.Fatalf("add stop: %v", err)
	}
	if _, _, err := svc.Apply(ctx, id, Mutation{
		StopPrices: []StopPriceEdit{{Leg: LegPickup, Index: 0, Price: 900}},
	}); err != nil {
		t.Fatalf("edit stop price: %v", err)
	}

	sess, _, err := svc.RemoveStop(ctx, id, RemoveStopCommand{Leg: LegPickup, Index: 0})
	if err != nil {
		t.Fatalf("remove stop: %v", err)
	}
	if sess.Draft.PickupStops[0] != (StopSlot{}) {
		t.Errorf("slot not cleared: %+v", sess.Draft.PickupStops[0])
	}

	// The next occupant starts in Auto and gets the default price.
	sess, _, err = svc.AddStop(ctx, id, AddStopCommand{Leg: LegPickup, Location: "elsewhere"})
	if err != nil {
		t.Fatalf("re-add stop: %v", err)
	}
	if sess.Draft.PickupStops[0].Price != 500 {
		t.Errorf("recycled slot price = %v, want default 500", sess.Draft.PickupStops[0].Price)
	}
}

func TestServiceJobCostLockedWhileContracted(t *testing.T) {
	svc, _ := newTestService(t, testSnapshot(true, 1))
	ctx := context.Background()
	id := sessionSetup(t, svc)

	// User sets a job cost while no contractor is selected.
	if _, _, err := svc.Apply(ctx, id, Mutation{JobCost: moneyPtr(1200)}); err != nil {
		t.Fatalf("set job cost: %v", err)
	}

	// Selecting a matching contractor overwrites it and locks the field.
	sess, _, err := svc.Apply(ctx, id, Mutation{
		ContractorID:  idPtr("7"),
		ServiceID:     idPtr("3"),
		VehicleTypeID: idPtr("2"),
	})
	if err != nil {
		t.Fatalf("select contractor: %v", err)
	}
	if sess.Draft.JobCost != 3500 {
		t.Errorf("contracted job cost = %v, want 3500", sess.Draft.JobCost)
	}
	if _, _, err := svc.Apply(ctx, id, Mutation{JobCost: moneyPtr(1)}); err != ErrJobCostLocked {
		t.Errorf("editing locked job cost: err = %v, want ErrJobCostLocked", err)
	}

	// Clearing the contractor unlocks the field and retains the value.
	sess, _, err = svc.Apply(ctx, id, Mutation{ContractorID: idPtr("")})
	if err != nil {
		t.Fatalf("clear contractor: %v", err)
	}
	if sess.Draft.JobCost != 3500 {
		t.Errorf("job cost after clearing = %v, want 3500", sess.Draft.JobCost)
	}
	if _, _, err := svc.Apply(ctx, id, Mutation{JobCost: moneyPtr(2000)}); err != nil {
		t.Errorf("editing unlocked job cost: %v", err)
	}
}

func TestServiceAddStopValidation(t *testing.T) {
	svc, _ := newTestService(t, testSnapshot(true, 1))
	ctx := context.Background()
	id := sessionSetup(t, svc)

	if _, _, err := svc.AddStop(ctx, id, AddStopCommand{Leg: LegPickup, Location: "   "}); err == nil {
		t.Error("blank location accepted")
	}
	for i := 0; i < MaxStops; i++ {
		if _, _, err := svc.AddStop(ctx, id, AddStopCommand{Leg: LegPickup, Location: "stop"}); err != nil {
			t.Fatalf("add stop %d: %v", i, err)
		}
	}
	if _, _, err := svc.AddStop(ctx, id, AddStopCommand{Leg: LegPickup, Location: "overflow"}); err != ErrStopSlotsFull {
		t.Errorf("sixth stop: err = %v, want ErrStopSlotsFull", err)
	}
}

func TestServiceSaveAndCopy(t *testing.T) {
	svc, archive := newTestService(t, testSnapshot(true, 1))
	ctx := context.Background()
	id := sessionSetup(t, svc)

	bookingID, err := svc.Save(ctx, id)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	saved, err := archive.Load(ctx, bookingID)
	if err != nil {
		t.Fatalf("load saved: %v", err)
	}
	if saved.FinalPrice != 14000 {
		t.Errorf("saved final = %v, want 14000", saved.FinalPrice)
	}

	// Copy-editing starts a new session from the saved booking, with a fresh
	// edit set and a fresh recompute.
	copySess, quote, err := svc.Create(ctx, CreateCommand{FromBookingID: bookingID})
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if copySess.Draft.BasePrice != 12000 || quote.FinalPrice != 14000 {
		t.Errorf("copied draft: base %v final %v", copySess.Draft.BasePrice, quote.FinalPrice)
	}
	if copySess.ID == id {
		t.Error("copy must get its own session id")
	}

	// Cancel discards without touching the archive.
	if err := svc.Cancel(ctx, copySess.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, _, err := svc.Get(ctx, copySess.ID); err != ErrNotFound {
		t.Errorf("get after cancel: err = %v, want ErrNotFound", err)
	}
}
