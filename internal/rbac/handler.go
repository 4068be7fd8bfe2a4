package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventhub/eventhub/internal/platform/httpx"
)

// PermissionLister reads the catalog.
type PermissionLister interface {
	ListPermissions(ctx context.Context, domain string) ([]Permission, error)
}

// PermissionsHandler exposes the read-only permission catalog.
type PermissionsHandler struct {
	logger *slog.Logger
	store  PermissionLister
	guard  *Guard
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, store PermissionLister, guard *Guard) *PermissionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PermissionsHandler{logger: logger, store: store, guard: guard}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.With(h.guard.Action(PermissionResource, ActionList)).Get("/", h.list)
}

func (h *PermissionsHandler) list(w http.ResponseWriter, r *http.Request) {
	perms, err := h.store.ListPermissions(r.Context(), r.URL.Query().Get("domain"))
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if perms == nil {
		perms = []Permission{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": perms})
}
