// Package query holds list filters and the SQL predicate builder shared by the event management resources.
package query

import (
	"net/url"
	"strings"

	"github.com/eventhub/eventhub/internal/shared"
)

// ListFilters represents the common list query parameters.
type ListFilters struct {
	Page     int
	Size     int
	Search   string
	Ordering string
	Params   url.Values
}

// FiltersFromQuery reads page, size, search and ordering from q.
func FiltersFromQuery(q url.Values) ListFilters {
	page, size := shared.PageParams(q)
	return ListFilters{
		Page:     page,
		Size:     size,
		Search:   strings.TrimSpace(q.Get("search")),
		Ordering: strings.TrimSpace(q.Get("ordering")),
		Params:   q,
	}
}

// Offset returns the row offset for the filter's page.
func (f ListFilters) Offset() int {
	return shared.PageOffset(f.Page, f.Size)
}

// OrderBy maps an `ordering` value such as "-date" onto an ORDER BY clause.
// Only keys in allowed are accepted; anything else yields fallback.
func OrderBy(ordering string, allowed map[string]string, fallback string) string {
	desc := strings.HasPrefix(ordering, "-")
	column, ok := allowed[strings.TrimPrefix(ordering, "-")]
	if !ok {
		return fallback
	}
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}
