package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/shared"
)

// PathUUID parses the named chi URL parameter as a UUID.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, shared.ErrInvalidID
	}
	return id, nil
}

// Fail logs uncatalogued errors and renders the envelope.
func Fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	if !IsCatalogued(err) && logger != nil {
		logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path), slog.String("method", r.Method))
	}
	RespondError(w, err)
}
