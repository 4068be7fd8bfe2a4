package categories

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

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

func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Action(rbac.Category, rbac.ActionList)).Get("/", h.list)
	r.With(h.guard.Action(rbac.Category, rbac.ActionCreate)).Post("/", h.create)
	r.With(h.guard.Action(rbac.Category, rbac.ActionRetrieve)).Get("/{id}", h.get)
	r.With(h.guard.Action(rbac.Category, rbac.ActionUpdate)).Put("/{id}", h.update(false))
	r.With(h.guard.Action(rbac.Category, rbac.ActionUpdate)).Patch("/{id}", h.update(true))
	r.With(h.guard.Action(rbac.Category, rbac.ActionDestroy)).Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), query.FiltersFromQuery(r.URL.Query()))
	if err != nil {
		httpx.Fail(w, r, h.logger, "list categories", err)
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
	category, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, h.logger, "get category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, category)
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
	category, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.Fail(w, r, h.logger, "create category", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, category)
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
				httpx.Fail(w, r, h.logger, "get category", err)
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
		category, err := h.service.Update(r.Context(), id, in)
		if err != nil {
			httpx.Fail(w, r, h.logger, "update category", err)
			return
		}
		httpx.JSON(w, http.StatusOK, category)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, r, h.logger, "delete category", err)
		return
	}
	httpx.NoContent(w)
}
