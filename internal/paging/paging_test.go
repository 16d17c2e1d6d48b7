package paging

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name                 string
		page, perPage, total int
		want                 Window
	}{
		{"empty", 0, 10, 0, Window{Offset: 0, Limit: 10, PageCount: 0, CurrentPage: 0}},
		{"exact", 0, 10, 20, Window{Offset: 0, Limit: 10, PageCount: 2, CurrentPage: 0}},
		{"remainder", 1, 10, 21, Window{Offset: 10, Limit: 10, PageCount: 3, CurrentPage: 1}},
		{"single", 0, 10, 1, Window{Offset: 0, Limit: 10, PageCount: 1, CurrentPage: 0}},
		{"out of range not clamped", 7, 5, 6, Window{Offset: 35, Limit: 5, PageCount: 2, CurrentPage: 7}},
		{"negative page", -3, 10, 5, Window{Offset: 0, Limit: 10, PageCount: 1, CurrentPage: 0}},
		{"huge page", 100000000000000000, 100, 1, Window{Offset: math.MaxInt / 100 * 100, Limit: 100, PageCount: 1, CurrentPage: math.MaxInt / 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.page, tt.perPage, tt.total))
		})
	}
}

func TestWindow_Navigation(t *testing.T) {
	w := New(1, 10, 25)
	assert.Equal(t, []int{0, 1, 2}, w.Pages())
	assert.True(t, w.HasPrev())
	assert.True(t, w.HasNext())

	w = New(2, 10, 25)
	assert.False(t, w.HasNext())

	w = New(0, 10, 0)
	assert.Empty(t, w.Pages())
	assert.False(t, w.HasPrev())
	assert.False(t, w.HasNext())
}

func TestParse(t *testing.T) {
	tests := []struct {
		query     string
		page, per int
	}{
		{"", 0, 10},
		{"page=2&per_page=5", 2, 5},
		{"page=-1&per_page=0", 0, 10},
		{"page=abc&per_page=xyz", 0, 10},
		{"per_page=1000", 0, MaxPerPage},
		{"page=100000000000000000&per_page=100", MaxPage, 100},
		{"page=99999999999999999999999", 0, 10},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		page, per := Parse(q)
		assert.Equal(t, tt.page, page, tt.query)
		assert.Equal(t, tt.per, per, tt.query)
	}
}

func TestParse_OffsetNeverNegative(t *testing.T) {
	q, _ := url.ParseQuery("page=100000000000000000&per_page=100")
	page, per := Parse(q)
	w := New(page, per, 1)
	assert.GreaterOrEqual(t, w.Offset, 0)
	assert.False(t, w.HasNext())
	assert.True(t, w.HasPrev())
}
