package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eventhub/eventhub/internal/auth"
	"github.com/eventhub/eventhub/internal/eventmgmt"
	"github.com/eventhub/eventhub/internal/observability"
	"github.com/eventhub/eventhub/internal/platform/httpx"
	"github.com/eventhub/eventhub/internal/rbac"
	"github.com/eventhub/eventhub/internal/roles"
	"github.com/eventhub/eventhub/internal/shared"
	"github.com/eventhub/eventhub/internal/users"
	"github.com/eventhub/eventhub/jobs"
)

// APIPrefix is the mount point of every versioned endpoint.
const APIPrefix = "/v1/api"

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	AuthHandler        *auth.Handler
	Gate               *auth.Gate
	EventManagement    eventmgmt.Handlers
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	AssignmentsHandler *roles.AssignmentHandler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, shared.ErrHTTPNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, shared.ErrHTTPMethodNotAllowed)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route(APIPrefix, func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Use(RateLimit(loginLimit(params.Config), time.Minute))
				params.AuthHandler.MountRoutes(r)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(params.Gate.Middleware)
			r.Route("/event_management", params.EventManagement.MountRoutes)
			r.Route("/security", func(r chi.Router) {
				if params.UsersHandler != nil {
					r.Route("/users", params.UsersHandler.MountRoutes)
				}
				if params.RolesHandler != nil {
					r.Route("/roles", params.RolesHandler.MountRoutes)
				}
				if params.AssignmentsHandler != nil {
					r.Route("/user-roles", params.AssignmentsHandler.MountRoutes)
				}
				if params.PermissionsHandler != nil {
					r.Route("/permissions", params.PermissionsHandler.MountRoutes)
				}
			})
		})
	})

	return r
}

func loginLimit(cfg *Config) int {
	if cfg == nil || cfg.LoginRateLimit <= 0 {
		return 10
	}
	return cfg.LoginRateLimit
}
