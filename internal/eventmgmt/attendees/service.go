package attendees

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/eventmgmt/query"
	"github.com/eventhub/eventhub/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters query.ListFilters) (shared.Page[Attendee], error) {
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return shared.Page[Attendee]{}, err
	}
	return shared.NewPage(items, filters.Page, filters.Size, total), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Attendee, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Attendee, error) {
	in.Phone = strings.TrimSpace(in.Phone)
	return s.repo.Create(ctx, in, shared.ActorID(ctx))
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Attendee, error) {
	in.Phone = strings.TrimSpace(in.Phone)
	return s.repo.Update(ctx, id, in, shared.ActorID(ctx))
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id, shared.ActorID(ctx))
}
