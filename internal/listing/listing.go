// Package listing implements the search and paging the dashboard screens
// apply to fully fetched collections.
package listing

import "strings"

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Page is one slice of a larger result.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Search keeps items where any of fields(item) contains query, ignoring case.
// A blank query returns items unchanged.
func Search[T any](items []T, query string, fields func(T) []string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, f := range fields(item) {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Paginate returns the 1-based page of items. Size is clamped to
// [1, MaxPageSize] with 0 meaning DefaultPageSize; a page past the end
// yields no items but keeps the totals.
func Paginate[T any](items []T, page, size int) Page[T] {
	switch {
	case size == 0:
		size = DefaultPageSize
	case size < 1:
		size = 1
	case size > MaxPageSize:
		size = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(items)
	totalPages := (total + size - 1) / size

	// Compare before multiplying so a huge page cannot overflow.
	start := total
	if page-1 <= total/size {
		start = min((page-1)*size, total)
	}
	end := start + size
	if end > total {
		end = total
	}
	return Page[T]{
		Items:      append(make([]T, 0, end-start), items[start:end]...),
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
	}
}
