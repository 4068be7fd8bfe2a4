// Package report builds the XLSX event report, either inline or through the job queue.
package report

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/shared"
)

const dateLayout = "2006-01-02"

// Filters narrows the events included in a report. EndDate covers the whole day.
type Filters struct {
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// Row is one event line of the sheet.
type Row struct {
	Name        string
	Description string
	Date        time.Time
	Location    string
	Category    string
	IsFeatured  bool
}

// Status tracks an asynchronous report.
type Status string

// Report states.
const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Job is the public view of an asynchronous report request.
type Job struct {
	ID     uuid.UUID `json:"id"`
	Status Status    `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// ParseFilters reads category_id, start_date and end_date.
func ParseFilters(q url.Values) (Filters, error) {
	var f Filters
	if raw := strings.TrimSpace(q.Get("category_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Filters{}, shared.ErrInvalidID
		}
		f.CategoryID = &id
	}
	var err error
	if f.StartDate, err = parseDate(q.Get("start_date")); err != nil {
		return Filters{}, err
	}
	if f.EndDate, err = parseDate(q.Get("end_date")); err != nil {
		return Filters{}, err
	}
	return f, nil
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, shared.ErrInvalidDateFormat
	}
	return &d, nil
}
