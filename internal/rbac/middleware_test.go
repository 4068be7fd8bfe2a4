package rbac_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/eventhub/internal/rbac"
	"github.com/eventhub/eventhub/internal/shared"
)

type checkerFunc func(ctx context.Context, userID uuid.UUID, c rbac.Capability) bool

func (f checkerFunc) Authorize(ctx context.Context, userID uuid.UUID, c rbac.Capability) bool {
	return f(ctx, userID, c)
}

func TestGuardDeniesWithFixedBody(t *testing.T) {
	guard := rbac.NewGuard(checkerFunc(func(context.Context, uuid.UUID, rbac.Capability) bool { return false }), nil)
	reached := false
	h := guard.Action(rbac.Event, rbac.ActionCreate)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true }))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{ID: uuid.New()}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, reached)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Permission denied","status":403,"data":null,"error":"Permission denied"}`, rec.Body.String())
}

func TestGuardPassesRequiredCapability(t *testing.T) {
	userID := uuid.New()
	var asked rbac.Capability
	guard := rbac.NewGuard(checkerFunc(func(_ context.Context, id uuid.UUID, c rbac.Capability) bool {
		asked = c
		return id == userID
	}), nil)
	h := guard.Action(rbac.Reservation, rbac.ActionUpdate)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPatch, "/", nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{ID: userID}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, rbac.Capability{Domain: "event_management", Codename: "change_reservation"}, asked)
}

func TestGuardWithoutPrincipalDenies(t *testing.T) {
	guard := rbac.NewGuard(checkerFunc(func(context.Context, uuid.UUID, rbac.Capability) bool { return true }), nil)
	h := guard.Action(rbac.Category, rbac.ActionList)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Permission denied", body["message"])
}
