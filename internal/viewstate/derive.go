package viewstate

import "strings"

// Filter returns the items where the query occurs, case-insensitively,
// in at least one of the strings produced by fields. An empty query
// returns every item. Pure: the input slice is never modified, and
// filtering twice with the same query yields the same result.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	out := make([]T, 0, len(items))
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append(out, items...)
	}
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

// Page slices out page k (1-indexed) of the given size, clipped to the
// collection bounds. Out-of-range pages return an empty slice.
func Page[T any](items []T, page, size int) []T {
	if page < 1 || size < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// PageCount returns the number of pages needed for n items; at least 1
// so views always have a current page to stand on.
func PageCount(n, size int) int {
	if size < 1 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Window combines the filter query and current page for one list view.
// Changing the query resets the page to 1 so the visible slice never
// points past the new, possibly smaller, filtered set.
type Window struct {
	query string
	page  int
	size  int
}

// NewWindow returns a window on page 1 with the given page size.
func NewWindow(size int) Window {
	if size < 1 {
		size = 1
	}
	return Window{page: 1, size: size}
}

// SetQuery replaces the filter text, resetting to page 1 when it
// actually changes.
func (w *Window) SetQuery(q string) {
	if q == w.query {
		return
	}
	w.query = q
	w.page = 1
}

// Query returns the current filter text.
func (w *Window) Query() string { return w.query }

// Page returns the current 1-indexed page.
func (w *Window) Page() int { return w.page }

// Size returns the fixed page size.
func (w *Window) Size() int { return w.size }

// Next advances one page, clipped to the page count for total items.
func (w *Window) Next(total int) {
	if w.page < PageCount(total, w.size) {
		w.page++
	}
}

// Prev steps back one page, clipped at 1.
func (w *Window) Prev() {
	if w.page > 1 {
		w.page--
	}
}

// Reset returns to page 1 without touching the query. Used after a
// scope change (e.g. a new selected date).
func (w *Window) Reset() { w.page = 1 }

// Visible computes the filtered page for the window. It returns the
// visible slice and the total page count of the filtered set. When the
// current page falls past the filtered set (items shrank underneath
// it), the window clips itself back to the last valid page.
func Visible[T any](w *Window, items []T, fields func(T) []string) ([]T, int) {
	filtered := Filter(items, w.query, fields)
	pages := PageCount(len(filtered), w.size)
	if w.page > pages {
		w.page = pages
	}
	return Page(filtered, w.page, w.size), pages
}
