package events

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/eventhub/internal/eventmgmt/query"
	"github.com/eventhub/eventhub/internal/shared"
)

type fakeRepo struct {
	events  map[uuid.UUID]Event
	created []Input
	actor   *uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{events: map[uuid.UUID]Event{}}
}

func (f *fakeRepo) List(context.Context, Filters, query.ListFilters) ([]Event, int, error) {
	out := make([]Event, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id uuid.UUID) (Event, error) {
	e, ok := f.events[id]
	if !ok {
		return Event{}, shared.ErrResourceNotFound
	}
	return e, nil
}

func (f *fakeRepo) Create(_ context.Context, in Input, actor *uuid.UUID) (Event, error) {
	f.created = append(f.created, in)
	f.actor = actor
	e := Event{ID: uuid.New(), Name: in.Name, Description: in.Description, Date: *in.Date, IsFeatured: in.IsFeatured}
	f.events[e.ID] = e
	return e, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, in Input, _ *uuid.UUID) (Event, error) {
	e := f.events[id]
	e.Name, e.Description, e.Date, e.IsFeatured = in.Name, in.Description, *in.Date, in.IsFeatured
	f.events[id] = e
	return e, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID, _ *uuid.UUID) error {
	if _, ok := f.events[id]; !ok {
		return shared.ErrResourceNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeRepo) MarkFeatured(_ context.Context, ids []uuid.UUID, _ *uuid.UUID) (int64, error) {
	return int64(len(ids)), nil
}

func fixedService(repo Repository, now time.Time) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateRejectsPastDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := fixedService(newFakeRepo(), now)
	past := now.Add(-time.Hour)

	_, err := svc.Create(context.Background(), Input{Name: "Go Day", Date: &past, CategoryID: uuid.New()})
	assert.ErrorIs(t, err, shared.ErrEventDateInPast)
}

func TestCreateFeaturedNeedsDescription(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := fixedService(newFakeRepo(), now)
	future := now.Add(24 * time.Hour)

	_, err := svc.Create(context.Background(), Input{Name: "Go Day", Date: &future, IsFeatured: true, Description: "   "})
	assert.ErrorIs(t, err, shared.ErrMissingDescription)
}

func TestCreateStampsActor(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	svc := fixedService(repo, now)
	future := now.Add(24 * time.Hour)
	actor := uuid.New()
	ctx := shared.ContextWithPrincipal(context.Background(), &shared.Principal{ID: actor})

	event, err := svc.Create(ctx, Input{Name: "  Go Day  ", Date: &future, Location: "Hall A"})
	require.NoError(t, err)
	assert.Equal(t, "Go Day", event.Name)
	require.NotNil(t, repo.actor)
	assert.Equal(t, actor, *repo.actor)
}

func TestUpdateKeepsUnchangedPastDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	past := now.Add(-48 * time.Hour)
	existing := Event{ID: uuid.New(), Name: "Retro", Date: past}
	repo.events[existing.ID] = existing
	svc := fixedService(repo, now)

	in := inputFrom(existing)
	in.Name = "Retro 2"
	updated, err := svc.Update(context.Background(), existing.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Retro 2", updated.Name)

	earlier := past.Add(-time.Hour)
	in.Date = &earlier
	_, err = svc.Update(context.Background(), existing.ID, in)
	assert.ErrorIs(t, err, shared.ErrEventDateInPast)
}

func TestUpdateMissingEvent(t *testing.T) {
	svc := fixedService(newFakeRepo(), time.Now())
	future := time.Now().Add(time.Hour)
	_, err := svc.Update(context.Background(), uuid.New(), Input{Name: "x", Date: &future})
	assert.ErrorIs(t, err, shared.ErrResourceNotFound)
}

func TestMarkFeaturedRequiresIDs(t *testing.T) {
	svc := fixedService(newFakeRepo(), time.Now())
	_, err := svc.MarkFeatured(context.Background(), nil)
	var vErr *shared.ValidationError
	assert.ErrorAs(t, err, &vErr)

	n, err := svc.MarkFeatured(context.Background(), []uuid.UUID{uuid.New(), uuid.New()})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestParseFilters(t *testing.T) {
	f, err := ParseFilters(url.Values{"date": {"2025-02-03"}, "category": {"Workshop"}, "search": {"go"}})
	require.NoError(t, err)
	require.NotNil(t, f.Date)
	assert.Equal(t, 3, f.Date.Day())
	assert.Equal(t, "Workshop", f.Category)

	_, err = ParseFilters(url.Values{"date": {"03/02/2025"}})
	assert.ErrorIs(t, err, shared.ErrInvalidDateFormat)
}
