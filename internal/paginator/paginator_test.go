package paginator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		total   int64
		perPage int
		want    int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{13, 10, 2},
		{25, 10, 3},
		{5, 0, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, New(tt.total, tt.perPage).NumPages, "total=%d perPage=%d", tt.total, tt.perPage)
	}
}

func TestPaginator_Page(t *testing.T) {
	p := New(13, 10)
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"absent", "", 1},
		{"first", "1", 1},
		{"last", "2", 2},
		{"beyond last", "99", 2},
		{"zero", "0", 1},
		{"negative", "-3", 1},
		{"non numeric", "abc", 1},
		{"padded", " 2 ", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Page(tt.raw).Number)
		})
	}
}

func TestWindow(t *testing.T) {
	p := New(13, 10)

	first := p.Page("1")
	assert.Equal(t, 0, first.Offset())
	assert.Equal(t, 10, first.Limit())
	assert.False(t, first.HasPrevious())
	assert.True(t, first.HasNext())
	assert.Equal(t, 2, first.NextNumber())
	assert.EqualValues(t, 1, first.StartIndex())
	assert.EqualValues(t, 10, first.EndIndex())
	assert.True(t, first.HasOtherPages())
	assert.Equal(t, []int{1, 2}, first.PageRange())

	last := p.Page("2")
	assert.Equal(t, 10, last.Offset())
	assert.True(t, last.HasPrevious())
	assert.False(t, last.HasNext())
	assert.Equal(t, 1, last.PreviousNumber())
	assert.Equal(t, 2, last.NextNumber())
	assert.EqualValues(t, 11, last.StartIndex())
	assert.EqualValues(t, 13, last.EndIndex())

	empty := New(0, 10).Page("5")
	assert.Equal(t, 1, empty.Number)
	assert.False(t, empty.HasOtherPages())
	assert.EqualValues(t, 0, empty.StartIndex())
	assert.EqualValues(t, 0, empty.EndIndex())
}

func TestSlice(t *testing.T) {
	items := make([]int, 13)
	for i := range items {
		items[i] = i
	}

	page := Slice(items, 10, "")
	assert.Equal(t, 10, page.Len())
	assert.Equal(t, 0, page.Items[0])

	page = Slice(items, 10, "2")
	assert.Equal(t, 3, page.Len())
	assert.Equal(t, []int{10, 11, 12}, page.Items)

	page = Slice([]int{}, 10, "3")
	assert.Equal(t, 1, page.Number)
	assert.Zero(t, page.Len())
}
