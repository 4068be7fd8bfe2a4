package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/eventhub/internal/auth"
	"github.com/eventhub/eventhub/internal/shared"
	_ "github.com/eventhub/eventhub/testing"
)

type resolverFunc func(ctx context.Context, id uuid.UUID) (*auth.User, error)

func (f resolverFunc) Resolve(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return f(ctx, id)
}

func knownUser(user *auth.User) resolverFunc {
	return func(_ context.Context, id uuid.UUID) (*auth.User, error) {
		if id == user.ID {
			return user, nil
		}
		return nil, shared.ErrResourceNotFound
	}
}

func bearer(t *testing.T, subject string, issued time.Time, ttl time.Duration) string {
	t.Helper()
	raw, err := auth.NewCodec(testSecret).Encode(subject, issued, issued.Add(ttl), auth.TokenExtras{})
	require.NoError(t, err)
	return "Bearer " + raw
}

func TestGateAuthenticate(t *testing.T) {
	user := &auth.User{ID: uuid.New(), Email: "ana@example.com", IsActive: true}
	now := time.Now()

	cases := []struct {
		name     string
		header   string
		resolver resolverFunc
		wantErr  error
	}{
		{name: "missing header", header: "", wantErr: shared.ErrInvalidAuthToken},
		{name: "wrong scheme", header: "Token abc", wantErr: shared.ErrInvalidAuthToken},
		{name: "lowercase scheme", header: "bearer " + bearer(t, user.ID.String(), now, time.Hour)[7:], wantErr: shared.ErrInvalidAuthToken},
		{name: "bearer without space", header: "Bearer", wantErr: shared.ErrInvalidAuthToken},
		{name: "garbage token", header: "Bearer abc.def.ghi", wantErr: shared.ErrInvalidAuthToken},
		{name: "expired", header: bearer(t, user.ID.String(), now.Add(-3*time.Hour), time.Hour), wantErr: shared.ErrExpiredAuthToken},
		{name: "empty subject", header: bearer(t, "", now, time.Hour), wantErr: shared.ErrInvalidAuthToken},
		{name: "non uuid subject", header: bearer(t, "42", now, time.Hour), wantErr: shared.ErrInvalidAuthToken},
		{name: "unknown user", header: bearer(t, uuid.NewString(), now, time.Hour), wantErr: shared.ErrResourceNotFound},
		{
			name:   "store failure",
			header: bearer(t, user.ID.String(), now, time.Hour),
			resolver: func(context.Context, uuid.UUID) (*auth.User, error) {
				return nil, errors.New("connection refused")
			},
			wantErr: shared.ErrServerError,
		},
		{
			name:   "resolver panic",
			header: bearer(t, user.ID.String(), now, time.Hour),
			resolver: func(context.Context, uuid.UUID) (*auth.User, error) {
				panic("boom")
			},
			wantErr: shared.ErrServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := tc.resolver
			if resolver == nil {
				resolver = knownUser(user)
			}
			gate := auth.NewGate(auth.NewCodec(testSecret), resolver, nil)
			req := httptest.NewRequest(http.MethodGet, "/v1/api/event_management/event", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			got, err := gate.Authenticate(req)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGateMiddlewareAttachesPrincipal(t *testing.T) {
	user := &auth.User{ID: uuid.New(), Email: "ana@example.com", IsActive: true}
	gate := auth.NewGate(auth.NewCodec(testSecret), knownUser(user), nil)

	var seen *shared.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, user.ID.String(), time.Now(), time.Hour))
	rec := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)
	assert.Equal(t, user.Email, seen.Email)
}

func TestGateMiddlewareRendersEnvelope(t *testing.T) {
	user := &auth.User{ID: uuid.New()}
	gate := auth.NewGate(auth.NewCodec(testSecret), knownUser(user), nil)
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, user.ID.String(), time.Now().Add(-48*time.Hour), time.Hour))
	rec := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "API006", body["code"])
	assert.Equal(t, shared.ErrExpiredAuthToken.Message, body["message"])
	assert.EqualValues(t, 401, body["status"])
	assert.Contains(t, body, "data")
	assert.Nil(t, body["data"])
}
