// Package paginator splits ordered result sets into numbered pages.
package paginator

import (
	"strconv"
	"strings"
)

// Paginator knows how many pages a result set of Total items spans.
type Paginator struct {
	Total    int64
	PerPage  int
	NumPages int
}

// New returns a paginator for total items. An empty set still has one page.
func New(total int64, perPage int) *Paginator {
	if perPage <= 0 {
		perPage = 1
	}
	if total < 0 {
		total = 0
	}
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	if pages < 1 {
		pages = 1
	}
	return &Paginator{Total: total, PerPage: perPage, NumPages: pages}
}

// Page resolves a raw ?page= value. Anything that is not an integer gives
// page 1, and out-of-range numbers clamp to the nearest valid page.
func (p *Paginator) Page(raw string) Window {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = 1
	}
	return p.window(n)
}

func (p *Paginator) window(n int) Window {
	if n < 1 {
		n = 1
	}
	if n > p.NumPages {
		n = p.NumPages
	}
	return Window{Number: n, NumPages: p.NumPages, Total: p.Total, PerPage: p.PerPage}
}

// Window is one page of a paginated result set.
type Window struct {
	Number   int
	NumPages int
	Total    int64
	PerPage  int
}

func (w Window) Offset() int { return (w.Number - 1) * w.PerPage }

func (w Window) Limit() int { return w.PerPage }

func (w Window) HasPrevious() bool { return w.Number > 1 }

func (w Window) HasNext() bool { return w.Number < w.NumPages }

func (w Window) HasOtherPages() bool { return w.NumPages > 1 }

func (w Window) PreviousNumber() int {
	if !w.HasPrevious() {
		return w.Number
	}
	return w.Number - 1
}

func (w Window) NextNumber() int {
	if !w.HasNext() {
		return w.Number
	}
	return w.Number + 1
}

// StartIndex is the 1-based index of the first item on the page, or 0 when empty.
func (w Window) StartIndex() int64 {
	if w.Total == 0 {
		return 0
	}
	return int64(w.Offset()) + 1
}

// EndIndex is the 1-based index of the last item on the page.
func (w Window) EndIndex() int64 {
	end := int64(w.Offset() + w.PerPage)
	if end > w.Total {
		end = w.Total
	}
	return end
}

// PageRange lists every page number from 1 to NumPages.
func (w Window) PageRange() []int {
	out := make([]int, w.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Page is a window together with the items that fall in it.
type Page[T any] struct {
	Window
	Items []T
}

// Len is the number of items on this page.
func (p Page[T]) Len() int { return len(p.Items) }

// Slice paginates an in-memory sequence.
func Slice[T any](items []T, perPage int, raw string) Page[T] {
	w := New(int64(len(items)), perPage).Page(raw)
	start := w.Offset()
	end := start + w.Limit()
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return Page[T]{Window: w, Items: items[start:end]}
}
