// README: Booking session service: owns draft mutation, edit tracking, and the
// recompute pass that follows every mutation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"charter/internal/modules/pricing"
	"charter/internal/types"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrBadRequest    = errors.New("bad request")
	ErrStopSlotsFull = errors.New("no free stop slot")
	ErrStopSlotEmpty = errors.New("stop slot is empty")
	ErrJobCostLocked = errors.New("job cost is system-owned while a contractor is set")
)

// Session is one editing session: a draft, its edit-tracking set, and the
// last-observed identity triple used to detect identity changes.
type Session struct {
	ID           types.ID  `json:"id"`
	Draft        Draft     `json:"draft"`
	Edits        *EditSet  `json:"edits"`
	LastIdentity Identity  `json:"last_identity"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionStore persists editing sessions between requests.
type SessionStore interface {
	Put(ctx context.Context, s *Session) error
	Get(ctx context.Context, id types.ID) (*Session, error)
	Delete(ctx context.Context, id types.ID) error
}

// SnapshotSource supplies the read-only pricing snapshot for each pass.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*pricing.Snapshot, error)
}

// StopLocator normalizes free-text stop locations. Optional.
type StopLocator interface {
	Normalize(ctx context.Context, location string) (string, error)
}

// BookingArchive persists a finished draft on save and loads saved bookings
// for copy-editing. Optional; without it Save returns ErrBadRequest.
type BookingArchive interface {
	Save(ctx context.Context, d *Draft) (types.ID, error)
	Load(ctx context.Context, id types.ID) (*Draft, error)
}

type Service struct {
	sessions SessionStore
	pricing  SnapshotSource
	archive  BookingArchive
	locator  StopLocator
	log      *zap.Logger
}

func NewService(sessions SessionStore, pricing SnapshotSource, archive BookingArchive, locator StopLocator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{sessions: sessions, pricing: pricing, archive: archive, locator: locator, log: log}
}

type CreateCommand struct {
	// FromBookingID copies a saved booking into the new draft.
	FromBookingID types.ID
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Session, Quote, error) {
	sess := &Session{
		ID:        types.ID(uuid.NewString()),
		Edits:     NewEditSet(),
		CreatedAt: time.Now().UTC(),
	}
	if cmd.FromBookingID != "" {
		if s.archive == nil {
			return nil, Quote{}, fmt.Errorf("%w: copy requires a booking archive", ErrBadRequest)
		}
		d, err := s.archive.Load(ctx, cmd.FromBookingID)
		if err != nil {
			return nil, Quote{}, err
		}
		sess.Draft = *d
	}
	sess.LastIdentity = sess.Draft.Identity()

	quote, err := s.recompute(ctx, sess)
	if err != nil {
		return nil, Quote{}, err
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, Quote{}, err
	}
	return sess, quote, nil
}

// Get returns the session with a freshly derived quote. Recomputation is
// idempotent, so deriving the quote does not change the stored draft.
func (s *Service) Get(ctx context.Context, id types.ID) (*Session, Quote, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, Quote{}, err
	}
	quote, err := s.recompute(ctx, sess)
	if err != nil {
		return nil, Quote{}, err
	}
	return sess, quote, nil
}

// StopPriceEdit is a direct user edit of one stop-price slot.
type StopPriceEdit struct {
	Leg   StopLeg
	Index int
	Price types.Money
}

// Mutation carries one batch of field edits. Nil pointers leave fields
// untouched. Money fields and stop prices count as direct edits and move
// their targets to Manual; identity and timing fields do not.
type Mutation struct {
	CustomerID    *types.ID
	ServiceID     *types.ID
	ServiceName   *string
	VehicleTypeID *types.ID
	ContractorID  *types.ID

	PickupDate *string
	PickupTime *string

	BasePrice          *types.Money
	MidnightSurcharge  *types.Money
	AdditionalDiscount *types.Money
	ExtraServices      *[]ExtraService
	JobCost            *types.Money
	CashToCollect      *types.Money

	StopPrices []StopPriceEdit
}

// Apply applies a mutation batch, then runs one recompute pass, then persists
// the session.
func (s *Service) Apply(ctx context.Context, id types.ID, m Mutation) (*Session, Quote, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, Quote{}, err
	}
	d := &sess.Draft

	if m.CustomerID != nil {
		d.CustomerID = *m.CustomerID
	}
	if m.ServiceID != nil {
		d.ServiceID = *m.ServiceID
	}
	if m.ServiceName != nil {
		d.ServiceName = *m.ServiceName
	}
	if m.VehicleTypeID != nil {
		d.VehicleTypeID = *m.VehicleTypeID
	}
	if m.ContractorID != nil {
		d.ContractorID = *m.ContractorID
	}
	if m.PickupDate != nil {
		d.PickupDate = *m.PickupDate
	}
	if m.PickupTime != nil {
		d.PickupTime = *m.PickupTime
	}

	if m.BasePrice != nil {
		d.BasePrice = *m.BasePrice
		sess.Edits.MarkManual(FieldBasePrice)
	}
	if m.MidnightSurcharge != nil {
		d.MidnightSurcharge = *m.MidnightSurcharge
		sess.Edits.MarkManual(FieldMidnightSurcharge)
	}
	if m.AdditionalDiscount != nil {
		d.AdditionalDiscount = *m.AdditionalDiscount
	}
	if m.ExtraServices != nil {
		d.ExtraServices = *m.ExtraServices
	}
	if m.JobCost != nil {
		if d.JobCostLocked() {
			return nil, Quote{}, ErrJobCostLocked
		}
		d.JobCost = *m.JobCost
	}
	if m.CashToCollect != nil {
		d.CashToCollect = *m.CashToCollect
		sess.Edits.MarkManual(FieldCashToCollect)
	}
	for _, edit := range m.StopPrices {
		if edit.Index < 0 || edit.Index >= MaxStops {
			return nil, Quote{}, fmt.Errorf("%w: stop index %d", ErrBadRequest, edit.Index)
		}
		slot := &d.Stops(edit.Leg)[edit.Index]
		if slot.Location == "" {
			return nil, Quote{}, ErrStopSlotEmpty
		}
		slot.Price = edit.Price
		sess.Edits.MarkManual(StopPriceField(edit.Leg, edit.Index))
	}

	quote, err := s.recompute(ctx, sess)
	if err != nil {
		return nil, Quote{}, err
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, Quote{}, err
	}
	return sess, quote, nil
}

type AddStopCommand struct {
	Leg      StopLeg
	Location string
}

// AddStop occupies the first free slot on the leg. The slot enters in Auto
// state, so the following recompute assigns it the per-stop default price.
func (s *Service) AddStop(ctx context.Context, id types.ID, cmd AddStopCommand) (*Session, Quote, error) {
	location := strings.TrimSpace(cmd.Location)
	if location == "" {
		return nil, Quote{}, fmt.Errorf("%w: empty stop location", ErrBadRequest)
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, Quote{}, err
	}

	if s.locator != nil {
		normalized, err := s.locator.Normalize(ctx, location)
		if err != nil {
			// Best effort: keep the raw text when the locator is unavailable.
			s.log.Debug("stop location normalization failed", zap.String("location", location), zap.Error(err))
		} else if normalized != "" {
			location = normalized
		}
	}

	slots := sess.Draft.Stops(cmd.Leg)
	placed := false
	for i := range slots {
		if slots[i].Location == "" {
			slots[i] = StopSlot{Location: location}
			placed = true
			break
		}
	}
	if !placed {
		return nil, Quote{}, ErrStopSlotsFull
	}

	quote, err := s.recompute(ctx, sess)
	if err != nil {
		return nil, Quote{}, err
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, Quote{}, err
	}
	return sess, quote, nil
}

type RemoveStopCommand struct {
	Leg   StopLeg
	Index int
}

// RemoveStop clears the slot and recycles its tracking state to Auto for the
// next occupant.
func (s *Service) RemoveStop(ctx context.Context, id types.ID, cmd RemoveStopCommand) (*Session, Quote, error) {
	if cmd.Index < 0 || cmd.Index >= MaxStops {
		return nil, Quote{}, fmt.Errorf("%w: stop index %d", ErrBadRequest, cmd.Index)
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, Quote{}, err
	}
	sess.Draft.Stops(cmd.Leg)[cmd.Index] = StopSlot{}
	sess.Edits.ResetField(StopPriceField(cmd.Leg, cmd.Index))

	quote, err := s.recompute(ctx, sess)
	if err != nil {
		return nil, Quote{}, err
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, Quote{}, err
	}
	return sess, quote, nil
}

// Save hands the draft to the archive. The session stays alive so editing can
// continue after a save.
func (s *Service) Save(ctx context.Context, id types.ID) (types.ID, error) {
	if s.archive == nil {
		return "", fmt.Errorf("%w: no booking archive configured", ErrBadRequest)
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if _, err := s.recompute(ctx, sess); err != nil {
		return "", err
	}
	bookingID, err := s.archive.Save(ctx, &sess.Draft)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return "", err
	}
	return bookingID, nil
}

// Cancel discards the session. Nothing was persisted, so there is no cleanup
// beyond deleting the stored state.
func (s *Service) Cancel(ctx context.Context, id types.ID) error {
	return s.sessions.Delete(ctx, id)
}

// recompute detects identity changes, resets locks accordingly, and runs the
// engine over the current snapshot.
func (s *Service) recompute(ctx context.Context, sess *Session) (Quote, error) {
	snap, err := s.pricing.Snapshot(ctx)
	if err != nil {
		return Quote{}, err
	}
	if identity := sess.Draft.Identity(); identity != sess.LastIdentity {
		sess.Edits.Reset()
		sess.LastIdentity = identity
	}
	quote := Recompute(&sess.Draft, sess.Edits, snap)
	if quote.ContractorPricingMiss {
		s.log.Info("no contractor pricing found",
			zap.String("contractor_id", string(sess.Draft.ContractorID)),
			zap.String("service_id", string(sess.Draft.ServiceID)),
			zap.String("vehicle_type_id", string(sess.Draft.VehicleTypeID)))
	}
	return quote, nil
}
