package categories

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
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

type memRepo struct {
	items map[uuid.UUID]Category
	actor *uuid.UUID
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[uuid.UUID]Category{}}
}

func (m *memRepo) List(_ context.Context, f query.ListFilters) ([]Category, int, error) {
	out := make([]Category, 0, len(m.items))
	for _, c := range m.items {
		if f.Search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Search)) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := len(out)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.Size
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (Category, error) {
	c, ok := m.items[id]
	if !ok {
		return Category{}, shared.ErrResourceNotFound
	}
	return c, nil
}

func (m *memRepo) Create(_ context.Context, in Input, actor *uuid.UUID) (Category, error) {
	for _, c := range m.items {
		if c.Name == in.Name {
			return Category{}, shared.DuplicateError("name", "category with this name already exists.")
		}
	}
	m.actor = actor
	c := Category{ID: uuid.New(), Name: in.Name, Description: in.Description}
	m.items[c.ID] = c
	return c, nil
}

func (m *memRepo) Update(_ context.Context, id uuid.UUID, in Input, _ *uuid.UUID) (Category, error) {
	c, ok := m.items[id]
	if !ok {
		return Category{}, shared.ErrResourceNotFound
	}
	c.Name, c.Description = in.Name, in.Description
	m.items[id] = c
	return c, nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID, _ *uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return shared.ErrResourceNotFound
	}
	delete(m.items, id)
	return nil
}

type allowAll struct{}

func (allowAll) Authorize(context.Context, uuid.UUID, rbac.Capability) bool { return true }

type denyAll struct{}

func (denyAll) Authorize(context.Context, uuid.UUID, rbac.Capability) bool { return false }

var actorID = uuid.New()

func serve(t *testing.T, repo *memRepo, checker rbac.Checker, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/category", NewHandler(nil, NewService(repo), rbac.NewGuard(checker, nil)).MountRoutes)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{ID: actorID}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestCreateCategoryTrimsAndRecordsActor(t *testing.T) {
	repo := newMemRepo()
	rec, body := serve(t, repo, allowAll{}, http.MethodPost, "/category", `{"name":"  Workshop  ","description":" hands-on "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Workshop", body["name"])
	assert.Equal(t, "hands-on", body["description"])
	require.NotNil(t, repo.actor)
	assert.Equal(t, actorID, *repo.actor)
}

func TestCreateCategoryValidation(t *testing.T) {
	repo := newMemRepo()

	rec, body := serve(t, repo, allowAll{}, http.MethodPost, "/category", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FORM001", body["code"])

	rec, body = serve(t, repo, allowAll{}, http.MethodPost, "/category", `{"description":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []any{"name: This field is required."}, body["message"])

	_, _ = serve(t, repo, allowAll{}, http.MethodPost, "/category", `{"name":"Meetup"}`)
	rec, body = serve(t, repo, allowAll{}, http.MethodPost, "/category", `{"name":"Meetup"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FORM012", body["code"])
}

func TestCategoryPermissionDenied(t *testing.T) {
	repo := newMemRepo()
	rec, body := serve(t, repo, denyAll{}, http.MethodPost, "/category", `{"name":"Conference"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Permission denied", body["message"])
	assert.Empty(t, repo.items)
}

func TestListCategoriesPaginates(t *testing.T) {
	repo := newMemRepo()
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		c := Category{ID: uuid.New(), Name: name}
		repo.items[c.ID] = c
	}

	rec, body := serve(t, repo, allowAll{}, http.MethodGet, "/category?page=2&size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["count"])
	assert.EqualValues(t, 2, body["total_pages"])
	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "Charlie", results[0].(map[string]any)["name"])
}

func TestPatchCategoryKeepsDescription(t *testing.T) {
	repo := newMemRepo()
	c := Category{ID: uuid.New(), Name: "Conference", Description: "Big rooms"}
	repo.items[c.ID] = c

	rec, body := serve(t, repo, allowAll{}, http.MethodPatch, "/category/"+c.ID.String(), `{"name":"Summit"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Summit", body["name"])
	assert.Equal(t, "Big rooms", body["description"])

	rec, _ = serve(t, repo, allowAll{}, http.MethodPut, "/category/"+c.ID.String(), `{"name":"Summit"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.items[c.ID].Description)
}

func TestCategoryPathErrors(t *testing.T) {
	repo := newMemRepo()

	rec, body := serve(t, repo, allowAll{}, http.MethodGet, "/category/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FORM006", body["code"])

	rec, body = serve(t, repo, allowAll{}, http.MethodDelete, "/category/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "API002", body["code"])
}
