package reservations

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/shared"
)

// ParseFilters reads the event and status list parameters.
func ParseFilters(q url.Values) (Filters, error) {
	var f Filters
	if raw := strings.TrimSpace(q.Get("event")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Filters{}, shared.FieldError("event", shared.ErrInvalidID.Message)
		}
		f.EventID = &id
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := Status(raw)
		switch status {
		case StatusPending, StatusConfirmed, StatusCancelled:
			f.Status = status
		default:
			return Filters{}, shared.FieldError("status", "Select a valid choice.")
		}
	}
	return f, nil
}
