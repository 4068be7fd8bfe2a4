package roles

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

// Handler manages role endpoints.
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

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	change := h.guard.Action(rbac.Role, rbac.ActionUpdate)
	r.With(h.guard.Action(rbac.Role, rbac.ActionList)).Get("/", h.listRoles)
	r.With(h.guard.Action(rbac.Role, rbac.ActionCreate)).Post("/", h.createRole)
	r.With(change).Post("/activate", h.setActive(true))
	r.With(change).Post("/deactivate", h.setActive(false))
	r.With(h.guard.Action(rbac.Role, rbac.ActionRetrieve)).Get("/{id}", h.getRole)
	r.With(change).Put("/{id}", h.updateRole(false))
	r.With(change).Patch("/{id}", h.updateRole(true))
	r.With(change).Put("/{id}/permissions", h.setPermissions)
	r.With(h.guard.Action(rbac.Role, rbac.ActionDestroy)).Delete("/{id}", h.deleteRole)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	filters, err := ParseRoleFilters(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.ListRoles(r.Context(), filters, query.FiltersFromQuery(r.URL.Query()))
	if err != nil {
		httpx.Fail(w, r, h.logger, "list roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, h.logger, "get role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validator, in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.service.CreateRole(r.Context(), in)
	if err != nil {
		httpx.Fail(w, r, h.logger, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) updateRole(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.PathUUID(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		var in Input
		if partial {
			current, err := h.service.GetRole(r.Context(), id)
			if err != nil {
				httpx.Fail(w, r, h.logger, "get role", err)
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
		role, err := h.service.UpdateRole(r.Context(), id, in)
		if err != nil {
			httpx.Fail(w, r, h.logger, "update role", err)
			return
		}
		httpx.JSON(w, http.StatusOK, role)
	}
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
	role, err := h.service.SetPermissions(r.Context(), id, req.Permissions)
	if err != nil {
		httpx.Fail(w, r, h.logger, "set role permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

type idsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func (h *Handler) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req idsRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		updated, err := h.service.SetActive(r.Context(), req.IDs, active)
		if err != nil {
			httpx.Fail(w, r, h.logger, "set role active", err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]int64{"updated": updated})
	}
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		httpx.Fail(w, r, h.logger, "delete role", err)
		return
	}
	httpx.NoContent(w)
}

// AssignmentHandler manages user-role assignment endpoints.
type AssignmentHandler struct {
	logger    *slog.Logger
	service   *Service
	guard     *rbac.Guard
	validator *validator.Validate
}

// NewAssignmentHandler builds AssignmentHandler instance.
func NewAssignmentHandler(logger *slog.Logger, service *Service, guard *rbac.Guard) *AssignmentHandler {
	return &AssignmentHandler{logger: logger, service: service, guard: guard, validator: httpx.NewValidator()}
}

// MountRoutes registers assignment routes.
func (h *AssignmentHandler) MountRoutes(r chi.Router) {
	change := h.guard.Action(rbac.UserRole, rbac.ActionUpdate)
	r.With(h.guard.Action(rbac.UserRole, rbac.ActionList)).Get("/", h.list)
	r.With(h.guard.Action(rbac.UserRole, rbac.ActionCreate)).Post("/", h.create)
	r.With(h.guard.Action(rbac.UserRole, rbac.ActionRetrieve)).Get("/{id}", h.get)
	r.With(change).Put("/{id}", h.update(false))
	r.With(change).Patch("/{id}", h.update(true))
	r.With(change).Post("/{id}/toggle", h.toggle)
	r.With(h.guard.Action(rbac.UserRole, rbac.ActionDestroy)).Delete("/{id}", h.delete)
}

func (h *AssignmentHandler) list(w http.ResponseWriter, r *http.Request) {
	filters, err := ParseAssignmentFilters(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.ListAssignments(r.Context(), filters, query.FiltersFromQuery(r.URL.Query()))
	if err != nil {
		httpx.Fail(w, r, h.logger, "list user roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *AssignmentHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.GetAssignment(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, h.logger, "get user role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *AssignmentHandler) create(w http.ResponseWriter, r *http.Request) {
	var in AssignmentInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validator, in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.CreateAssignment(r.Context(), in)
	if err != nil {
		httpx.Fail(w, r, h.logger, "create user role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *AssignmentHandler) update(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.PathUUID(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		var in AssignmentInput
		if partial {
			current, err := h.service.GetAssignment(r.Context(), id)
			if err != nil {
				httpx.Fail(w, r, h.logger, "get user role", err)
				return
			}
			in = assignmentInputFrom(current)
		}
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := httpx.Validate(h.validator, in); err != nil {
			httpx.RespondError(w, err)
			return
		}
		a, err := h.service.UpdateAssignment(r.Context(), id, in)
		if err != nil {
			httpx.Fail(w, r, h.logger, "update user role", err)
			return
		}
		httpx.JSON(w, http.StatusOK, a)
	}
}

func (h *AssignmentHandler) toggle(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.ToggleAssignment(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, h.logger, "toggle user role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *AssignmentHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteAssignment(r.Context(), id); err != nil {
		httpx.Fail(w, r, h.logger, "delete user role", err)
		return
	}
	httpx.NoContent(w)
}
