package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/platform/httpx"
	"github.com/eventhub/eventhub/internal/shared"
)

// Checker decides capabilities; *Authorizer implements it.
type Checker interface {
	Authorize(ctx context.Context, userID uuid.UUID, capability Capability) bool
}

// Guard wires capability checks in front of HTTP handlers.
type Guard struct {
	checker Checker
	logger  *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(checker Checker, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{checker: checker, logger: logger}
}

// Require lets the request through only when the authenticated principal holds capability.
func (g *Guard) Require(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				g.logger.Warn("rbac guard without principal", slog.String("path", r.URL.Path))
				httpx.PermissionDenied(w)
				return
			}
			if !g.checker.Authorize(r.Context(), principal.ID, capability) {
				httpx.PermissionDenied(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Action is shorthand for Require(resource.Capability(action)).
func (g *Guard) Action(resource Resource, action Action) func(http.Handler) http.Handler {
	return g.Require(resource.Capability(action))
}
