package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/platform/httpx"
	"github.com/eventhub/eventhub/internal/shared"
)

const bearerPrefix = "Bearer "

// PrincipalResolver is the lookup the gate needs once a token decodes.
type PrincipalResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*User, error)
}

// Gate authenticates bearer tokens on protected routes.
type Gate struct {
	codec    *Codec
	resolver PrincipalResolver
	logger   *slog.Logger
}

// NewGate wires the codec and resolver.
func NewGate(codec *Codec, resolver PrincipalResolver, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{codec: codec, resolver: resolver, logger: logger}
}

// Authenticate extracts and verifies the bearer token and loads its principal.
// Every failure is one of InvalidAuthToken, ExpiredAuthToken, ResourceNotFound
// or ServerError.
func (g *Gate) Authenticate(r *http.Request) (user *User, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("auth gate panic", slog.Any("panic", rec), slog.String("path", r.URL.Path))
			user, err = nil, shared.ErrServerError
		}
	}()

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, shared.ErrInvalidAuthToken
	}

	claims, err := g.codec.Decode(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, shared.ErrExpiredAuthToken
		}
		return nil, shared.ErrInvalidAuthToken
	}

	if claims.UserID == "" {
		return nil, shared.ErrInvalidAuthToken
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, shared.ErrInvalidAuthToken
	}

	user, err = g.resolver.Resolve(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrResourceNotFound) {
			return nil, shared.ErrResourceNotFound
		}
		g.logger.Error("auth gate resolve", slog.Any("error", err), slog.String("user_id", id.String()))
		return nil, shared.ErrServerError
	}
	if user == nil {
		g.logger.Error("auth gate resolve", slog.Any("error", fmt.Errorf("nil user for %s", id)))
		return nil, shared.ErrServerError
	}
	return user, nil
}

// Middleware rejects unauthenticated requests and attaches the principal otherwise.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := g.Authenticate(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), user.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
