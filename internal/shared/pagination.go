package shared

import (
	"math"
	"net/url"
	"strconv"
)

// Default page sizing for list endpoints.
const (
	DefaultPage    = 1
	DefaultPerPage = 20
	MaxPerPage     = 100
	// MaxPage keeps (page-1)*size far from integer overflow.
	MaxPage = 1_000_000
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"size"`
	Total      int `json:"count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = DefaultPage
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return PageOffset(p.Page, p.PerPage)
}

// PageOffset returns the row offset of page, with page and size clamped to
// their bounds so the result is never negative.
func PageOffset(page, size int) int {
	if page <= 1 || size <= 0 {
		return 0
	}
	return (min(page, MaxPage) - 1) * min(size, MaxPerPage)
}

// PageParams reads `page` and `size` from a query string, clamped to sane bounds.
func PageParams(q url.Values) (page, size int) {
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	size, _ = strconv.Atoi(q.Get("size"))
	if size < 1 {
		size = DefaultPerPage
	}
	if size > MaxPerPage {
		size = MaxPerPage
	}
	return page, size
}

// Page is the list response body.
type Page[T any] struct {
	Pagination
	Results []T `json:"results"`
}

// NewPage wraps results with pagination metadata.
func NewPage[T any](results []T, page, size, total int) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{Pagination: NewPagination(page, size, total), Results: results}
}
