package events

import (
	"net/url"
	"strings"
	"time"

	"github.com/eventhub/eventhub/internal/shared"
)

const dateLayout = "2006-01-02"

func (s *Service) validate(in *Input, checkDate bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)

	if checkDate && in.Date != nil && in.Date.Before(s.now()) {
		return shared.ErrEventDateInPast
	}
	if in.IsFeatured && in.Description == "" {
		return shared.ErrMissingDescription
	}
	return nil
}

// ParseFilters reads the event-specific list parameters.
func ParseFilters(q url.Values) (Filters, error) {
	f := Filters{
		Search:   strings.TrimSpace(q.Get("search")),
		Category: strings.TrimSpace(q.Get("category")),
		Ordering: strings.TrimSpace(q.Get("ordering")),
	}
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Filters{}, shared.ErrInvalidDateFormat
		}
		f.Date = &d
	}
	return f, nil
}
