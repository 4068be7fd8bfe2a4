package attendees

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/eventhub/internal/eventmgmt/query"
	"github.com/eventhub/eventhub/internal/rbac"
	"github.com/eventhub/eventhub/internal/shared"
)

type stubRepo struct {
	items map[uuid.UUID]Attendee
}

func (s *stubRepo) List(context.Context, query.ListFilters) ([]Attendee, int, error) {
	return nil, 0, nil
}

func (s *stubRepo) Get(_ context.Context, id uuid.UUID) (Attendee, error) {
	a, ok := s.items[id]
	if !ok {
		return Attendee{}, shared.ErrResourceNotFound
	}
	return a, nil
}

func (s *stubRepo) Create(_ context.Context, in Input, _ *uuid.UUID) (Attendee, error) {
	a := Attendee{ID: uuid.New(), UserID: in.UserID, Phone: in.Phone}
	s.items[a.ID] = a
	return a, nil
}

func (s *stubRepo) Update(_ context.Context, id uuid.UUID, in Input, _ *uuid.UUID) (Attendee, error) {
	a, ok := s.items[id]
	if !ok {
		return Attendee{}, shared.ErrResourceNotFound
	}
	a.UserID, a.Phone = in.UserID, in.Phone
	s.items[id] = a
	return a, nil
}

func (s *stubRepo) Delete(context.Context, uuid.UUID, *uuid.UUID) error { return nil }

type grantAll struct{}

func (grantAll) Authorize(context.Context, uuid.UUID, rbac.Capability) bool { return true }

func do(t *testing.T, repo *stubRepo, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/attendee", NewHandler(nil, NewService(repo), rbac.NewGuard(grantAll{}, nil)).MountRoutes)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{ID: uuid.New()}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestCreateAttendeeRequiresUser(t *testing.T) {
	repo := &stubRepo{items: map[uuid.UUID]Attendee{}}

	rec, body := do(t, repo, http.MethodPost, "/attendee", `{"phone":"555"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []any{"user: This field is required."}, body["message"])
	assert.Empty(t, repo.items)
}

func TestPatchAttendeeKeepsUser(t *testing.T) {
	userID := uuid.New()
	existing := Attendee{ID: uuid.New(), UserID: userID, Phone: "111"}
	repo := &stubRepo{items: map[uuid.UUID]Attendee{existing.ID: existing}}

	rec, body := do(t, repo, http.MethodPatch, "/attendee/"+existing.ID.String(), `{"phone":"  222  "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "222", body["phone"])
	assert.Equal(t, userID.String(), body["user"])
}

func TestAttendeePhoneLength(t *testing.T) {
	repo := &stubRepo{items: map[uuid.UUID]Attendee{}}
	rec, body := do(t, repo, http.MethodPost, "/attendee",
		`{"user":"`+uuid.NewString()+`","phone":"1234567890123456"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []any{"phone: Ensure this field has no more than 15 characters."}, body["message"])
}
