package roles

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

	"github.com/eventhub/eventhub/internal/rbac"
	"github.com/eventhub/eventhub/internal/shared"
)

type capabilitySet map[rbac.Capability]bool

func (c capabilitySet) Authorize(_ context.Context, _ uuid.UUID, capability rbac.Capability) bool {
	return c[capability]
}

func newRoleRouter(repo *memRepo, granted capabilitySet) http.Handler {
	svc := NewService(repo)
	guard := rbac.NewGuard(granted, nil)
	r := chi.NewRouter()
	r.Route("/roles", NewHandler(nil, svc, guard).MountRoutes)
	r.Route("/user-roles", NewAssignmentHandler(nil, svc, guard).MountRoutes)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{ID: uuid.New()}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoleRoutesRequireCapability(t *testing.T) {
	repo := newMemRepo()
	router := newRoleRouter(repo, capabilitySet{rbac.Role.Capability(rbac.ActionList): true})

	rec := do(t, router, http.MethodGet, "/roles", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/roles", `{"name":"Staff","active":true}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, repo.roles)
}

func TestRolePatchKeepsUnsentFields(t *testing.T) {
	repo := newMemRepo()
	router := newRoleRouter(repo, capabilitySet{
		rbac.Role.Capability(rbac.ActionCreate): true,
		rbac.Role.Capability(rbac.ActionUpdate): true,
	})

	rec := do(t, router, http.MethodPost, "/roles", `{"name":"Staff","description":"Front desk staff","active":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, router, http.MethodPatch, "/roles/"+created.ID.String(), `{"active":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var patched Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patched))
	assert.Equal(t, "Staff", patched.Name)
	assert.Equal(t, "Front desk staff", patched.Description)
	assert.False(t, patched.Active)

	rec = do(t, router, http.MethodPut, "/roles/"+created.ID.String(), `{"name":"Staff"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRoleInUseResponds(t *testing.T) {
	repo := newMemRepo()
	user := uuid.New()
	repo.users[user] = "a@example.com"
	router := newRoleRouter(repo, capabilitySet{
		rbac.Role.Capability(rbac.ActionCreate):     true,
		rbac.Role.Capability(rbac.ActionDestroy):    true,
		rbac.UserRole.Capability(rbac.ActionCreate): true,
	})

	rec := do(t, router, http.MethodPost, "/roles", `{"name":"Staff","active":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var role Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &role))

	rec = do(t, router, http.MethodPost, "/user-roles", `{"user":"`+user.String()+`","role":"`+role.ID.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodDelete, "/roles/"+role.ID.String(), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "API007", body["code"])
}

func TestAssignmentDuplicateResponds(t *testing.T) {
	repo := newMemRepo()
	user := uuid.New()
	repo.users[user] = "a@example.com"
	svc := NewService(repo)
	role, err := svc.CreateRole(context.Background(), Input{Name: "Staff", Active: boolPtr(true)})
	require.NoError(t, err)
	router := newRoleRouter(repo, capabilitySet{rbac.UserRole.Capability(rbac.ActionCreate): true})

	payload := `{"user":"` + user.String() + `","role":"` + role.ID.String() + `"}`
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/user-roles", payload).Code)

	rec := do(t, router, http.MethodPost, "/user-roles", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), duplicateAssignmentMessage)
}
