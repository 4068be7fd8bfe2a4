package report

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eventhub/eventhub/internal/platform/httpx"
	"github.com/eventhub/eventhub/internal/rbac"
	"github.com/eventhub/eventhub/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   *rbac.Guard
}

func NewHandler(logger *slog.Logger, service *Service, guard *rbac.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes attaches report routes to the event prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	view := h.guard.Action(rbac.Event, rbac.ActionList)
	r.With(view).Get("/generate-report", h.generate)
	r.With(view).Post("/reports", h.request)
	r.With(view).Get("/reports/{reportID}", h.fetch)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	filters, err := ParseFilters(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.service.Generate(r.Context(), filters)
	if err != nil {
		httpx.Fail(w, r, h.logger, "generate event report", err)
		return
	}
	writeWorkbook(w, data)
}

func (h *Handler) request(w http.ResponseWriter, r *http.Request) {
	filters, err := ParseFilters(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	job, err := h.service.Request(r.Context(), filters)
	if errors.Is(err, ErrAsyncUnavailable) {
		h.logger.Warn("report queue unavailable")
		httpx.RespondError(w, shared.ErrHTTPServiceUnavailable)
		return
	}
	if err != nil {
		httpx.Fail(w, r, h.logger, "queue event report", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, job)
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathUUID(r, "reportID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	job, data, err := h.service.Fetch(r.Context(), id)
	if errors.Is(err, ErrAsyncUnavailable) {
		httpx.RespondError(w, shared.ErrHTTPServiceUnavailable)
		return
	}
	if err != nil {
		httpx.Fail(w, r, h.logger, "fetch event report", err)
		return
	}
	switch job.Status {
	case StatusReady:
		writeWorkbook(w, data)
	case StatusPending:
		httpx.JSON(w, http.StatusAccepted, job)
	default:
		httpx.JSON(w, http.StatusOK, job)
	}
}

func writeWorkbook(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
