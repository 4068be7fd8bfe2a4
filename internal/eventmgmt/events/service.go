package events

import (
	"context"
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

func (s *Service) List(ctx context.Context, filters Filters, page query.ListFilters) (shared.Page[Event], error) {
	items, total, err := s.repo.List(ctx, filters, page)
	if err != nil {
		return shared.Page[Event]{}, err
	}
	return shared.NewPage(items, page.Page, page.Size, total), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Event, error) {
	return s.repo.Get(ctx, id)
}

// Create rejects past dates and featured events without a description.
func (s *Service) Create(ctx context.Context, in Input) (Event, error) {
	if err := s.validate(&in, true); err != nil {
		return Event{}, err
	}
	return s.repo.Create(ctx, in, shared.ActorID(ctx))
}

// Update applies the same rules as Create; the past-date rule only fires when the date changes.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Event, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}
	dateChanged := in.Date != nil && !in.Date.Equal(current.Date)
	if err := s.validate(&in, dateChanged); err != nil {
		return Event{}, err
	}
	return s.repo.Update(ctx, id, in, shared.ActorID(ctx))
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, shared.ActorID(ctx))
}

// MarkFeatured flags the given events as featured and returns how many changed.
func (s *Service) MarkFeatured(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, shared.FieldError("ids", "This field is required.")
	}
	return s.repo.MarkFeatured(ctx, ids, shared.ActorID(ctx))
}
