// Package paging turns page/per_page requests into query windows.
package paging

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100

	// MaxPage keeps page*MaxPerPage within int.
	MaxPage = math.MaxInt / MaxPerPage
)

// Window is the slice of a listing to fetch and the metadata to render
// page navigation.
type Window struct {
	Offset      int
	Limit       int
	PageCount   int
	CurrentPage int
}

// New computes the window for page (0-based) of perPage items out of total.
// page is not clamped to PageCount; an out of range page yields an empty
// listing. Negative input is treated as 0 and the offset never overflows.
func New(page, perPage, total int) Window {
	if perPage < 0 {
		perPage = 0
	}
	if page < 0 {
		page = 0
	}
	if perPage > 0 && page > math.MaxInt/perPage {
		page = math.MaxInt / perPage
	}
	w := Window{
		Offset:      page * perPage,
		Limit:       perPage,
		CurrentPage: page,
	}
	if total > 0 && perPage > 0 {
		w.PageCount = (total + perPage - 1) / perPage
	}
	return w
}

// Pages returns 0..PageCount-1 for rendering page links.
func (w Window) Pages() []int {
	pages := make([]int, w.PageCount)
	for i := range pages {
		pages[i] = i
	}
	return pages
}

// HasPrev reports whether a previous page exists.
func (w Window) HasPrev() bool { return w.CurrentPage > 0 }

// HasNext reports whether a following page exists.
func (w Window) HasNext() bool { return w.CurrentPage+1 < w.PageCount }

// Parse reads page and per_page from a query string. Missing, malformed or
// negative values fall back to 0 and DefaultPerPage. page is capped at
// MaxPage.
func Parse(q url.Values) (page, perPage int) {
	page = atoiDefault(q.Get("page"), 0)
	if page < 0 {
		page = 0
	}
	if page > MaxPage {
		page = MaxPage
	}
	perPage = atoiDefault(q.Get("per_page"), DefaultPerPage)
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
