package reservations

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/eventmgmt/query"
	"github.com/eventhub/eventhub/internal/shared"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, filters Filters, page query.ListFilters) (shared.Page[Reservation], error) {
	items, total, err := s.repo.List(ctx, filters, page)
	if err != nil {
		return shared.Page[Reservation]{}, err
	}
	return shared.NewPage(items, page.Page, page.Size, total), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Reservation, error) {
	return s.repo.Get(ctx, id)
}

// Create books a slot. Every new booking needs a free confirmed slot, whatever
// its own status. The event row stays locked until the insert commits, so
// concurrent bookings near capacity are serialised.
func (s *Service) Create(ctx context.Context, in Input) (Reservation, error) {
	if in.Status == "" {
		in.Status = StatusPending
	}
	actor := shared.ActorID(ctx)

	var id uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		slot, err := tx.LockEvent(ctx, in.EventID)
		if err != nil {
			return err
		}
		if slot.Date.Before(s.now()) {
			return shared.ErrEventDateInPast
		}
		dup, err := tx.Exists(ctx, in.EventID, in.AttendeeID, uuid.Nil)
		if err != nil {
			return err
		}
		if dup {
			return shared.ErrDuplicateReservation
		}
		if err := checkCapacity(ctx, tx, in.EventID, uuid.Nil, slot); err != nil {
			return err
		}
		id, err = tx.Insert(ctx, in, actor)
		return err
	})
	if err != nil {
		return Reservation{}, err
	}
	return s.repo.Get(ctx, id)
}

// Update applies the booking rules to whatever changed: moving to another
// event re-checks its date, and becoming Confirmed on an event re-checks capacity.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Reservation, error) {
	actor := shared.ActorID(ctx)

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.LockReservation(ctx, id)
		if err != nil {
			return err
		}
		if in.Status == "" {
			in.Status = current.Status
		}
		eventChanged := in.EventID != current.EventID
		slot, err := tx.LockEvent(ctx, in.EventID)
		if err != nil {
			return err
		}
		if eventChanged && slot.Date.Before(s.now()) {
			return shared.ErrEventDateInPast
		}
		if eventChanged || in.AttendeeID != current.AttendeeID {
			dup, err := tx.Exists(ctx, in.EventID, in.AttendeeID, id)
			if err != nil {
				return err
			}
			if dup {
				return shared.ErrDuplicateReservation
			}
		}
		if in.Status == StatusConfirmed && (eventChanged || current.Status != StatusConfirmed) {
			if err := checkCapacity(ctx, tx, in.EventID, id, slot); err != nil {
				return err
			}
		}
		return tx.Update(ctx, id, in, actor)
	})
	if err != nil {
		return Reservation{}, err
	}
	return s.repo.Get(ctx, id)
}

// checkCapacity fails once confirmed bookings fill the event. An event with
// no slots accepts nothing.
func checkCapacity(ctx context.Context, tx TxRepository, eventID, excluding uuid.UUID, slot EventSlot) error {
	taken, err := tx.CountConfirmed(ctx, eventID, excluding)
	if err != nil {
		return err
	}
	if taken >= slot.TotalSlots {
		return shared.ErrNoAvailableSlots
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, shared.ActorID(ctx))
}

// ConfirmPending confirms the given pending reservations in one transaction.
// Unknown ids and reservations in other states are skipped; a batch that would
// overfill an event is rejected as a whole.
func (s *Service) ConfirmPending(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, shared.FieldError("ids", "This field is required.")
	}
	ordered := slices.Clone(ids)
	slices.SortFunc(ordered, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	ordered = slices.Compact(ordered)
	actor := shared.ActorID(ctx)

	var n int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		n = 0
		for _, id := range ordered {
			current, err := tx.LockReservation(ctx, id)
			if errors.Is(err, shared.ErrResourceNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if current.Status != StatusPending {
				continue
			}
			slot, err := tx.LockEvent(ctx, current.EventID)
			if err != nil {
				return err
			}
			if err := checkCapacity(ctx, tx, current.EventID, id, slot); err != nil {
				return err
			}
			in := inputFrom(current)
			in.Status = StatusConfirmed
			if err := tx.Update(ctx, id, in, actor); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
