package events

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

type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     *rbac.Guard
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, guard *rbac.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: httpx.NewValidator()}
}

// MountRoutes registers CRUD routes. Extra routes on the same prefix (reports)
// are mounted by the caller before this so static segments win over {id}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Action(rbac.Event, rbac.ActionList)).Get("/", h.list)
	r.With(h.guard.Action(rbac.Event, rbac.ActionCreate)).Post("/", h.create)
	r.With(h.guard.Action(rbac.Event, rbac.ActionUpdate)).Post("/mark-featured", h.markFeatured)
	r.With(h.guard.Action(rbac.Event, rbac.ActionRetrieve)).Get("/{id}", h.get)
	r.With(h.guard.Action(rbac.Event, rbac.ActionUpdate)).Put("/{id}", h.update(false))
	r.With(h.guard.Action(rbac.Event, rbac.ActionUpdate)).Patch("/{id}", h.update(true))
	r.With(h.guard.Action(rbac.Event, rbac.ActionDestroy)).Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters, err := ParseFilters(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.List(r.Context(), filters, query.FiltersFromQuery(r.URL.Query()))
	if err != nil {
		httpx.Fail(w, r, h.logger, "list events", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	event, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, h.logger, "get event", err)
		return
	}
	httpx.JSON(w, http.StatusOK, event)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validator, in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	event, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.Fail(w, r, h.logger, "create event", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, event)
}

func (h *Handler) update(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.PathUUID(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		var in Input
		if partial {
			current, err := h.service.Get(r.Context(), id)
			if err != nil {
				httpx.Fail(w, r, h.logger, "get event", err)
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
		event, err := h.service.Update(r.Context(), id, in)
		if err != nil {
			httpx.Fail(w, r, h.logger, "update event", err)
			return
		}
		httpx.JSON(w, http.StatusOK, event)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, r, h.logger, "delete event", err)
		return
	}
	httpx.NoContent(w)
}

type markFeaturedRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func (h *Handler) markFeatured(w http.ResponseWriter, r *http.Request) {
	var req markFeaturedRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.MarkFeatured(r.Context(), req.IDs)
	if err != nil {
		httpx.Fail(w, r, h.logger, "mark events featured", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"updated": updated})
}
