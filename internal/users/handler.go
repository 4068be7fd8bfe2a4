package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/eventmgmt/query"
	"github.com/eventhub/eventhub/internal/platform/httpx"
	"github.com/eventhub/eventhub/internal/rbac"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     *rbac.Guard
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *rbac.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: httpx.NewValidator()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	view := h.guard.Action(rbac.User, rbac.ActionRetrieve)
	change := h.guard.Action(rbac.User, rbac.ActionUpdate)
	r.With(h.guard.Action(rbac.User, rbac.ActionList)).Get("/", h.listUsers)
	r.With(h.guard.Action(rbac.User, rbac.ActionCreate)).Post("/", h.createUser)
	r.With(view).Get("/{id}", h.getUser)
	r.With(change).Put("/{id}", h.updateUser(false))
	r.With(change).Patch("/{id}", h.updateUser(true))
	r.With(h.guard.Action(rbac.User, rbac.ActionDestroy)).Delete("/{id}", h.deleteUser)
	r.With(view).Get("/{id}/permissions", h.listPermissions)
	r.With(change).Put("/{id}/permissions", h.setPermissions)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	filters, err := ParseFilters(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.ListUsers(r.Context(), filters, query.FiltersFromQuery(r.URL.Query()))
	if err != nil {
		httpx.Fail(w, r, h.logger, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, h.logger, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validator, in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.CreateUser(r.Context(), in)
	if err != nil {
		httpx.Fail(w, r, h.logger, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) updateUser(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.PathUUID(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		var in Input
		if partial {
			current, err := h.service.GetUser(r.Context(), id)
			if err != nil {
				httpx.Fail(w, r, h.logger, "get user", err)
				return
			}
			in = inputFrom(current)
		}
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := httpx.Validate(h.validator, in); err != nil {
			httpx.RespondError(w, err)
			return
		}
		user, err := h.service.UpdateUser(r.Context(), id, in)
		if err != nil {
			httpx.Fail(w, r, h.logger, "update user", err)
			return
		}
		httpx.JSON(w, http.StatusOK, user)
	}
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		httpx.Fail(w, r, h.logger, "delete user", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	perms, err := h.service.Permissions(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, h.logger, "list user permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": perms})
}

type permissionsRequest struct {
	Permissions []uuid.UUID `json:"permissions"`
}

func (h *Handler) setPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req permissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	perms, err := h.service.SetPermissions(r.Context(), id, req.Permissions)
	if err != nil {
		httpx.Fail(w, r, h.logger, "set user permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": perms})
}
