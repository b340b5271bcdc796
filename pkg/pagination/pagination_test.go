package pagination

import (
	"fmt"
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{10, 10},
		{100, 100},
		{101, MaxLimit},
		{5000, MaxLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultBounds.NormalizeLimit(tt.in))
	}
}

func TestNormalizeLimitCustomBounds(t *testing.T) {
	b := Bounds{Default: 500, Max: 20}
	assert.Equal(t, 20, b.NormalizeLimit(0))
	assert.Equal(t, 20, b.NormalizeLimit(21))
}

func TestParse(t *testing.T) {
	p, err := DefaultBounds.Parse("", "")
	require.NoError(t, err)
	assert.Equal(t, Params{Limit: 50, Offset: 0}, p)

	p, err = DefaultBounds.Parse("1000", "7")
	require.NoError(t, err)
	assert.Equal(t, Params{Limit: 100, Offset: 7}, p)

	_, err = DefaultBounds.Parse("abc", "")
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = DefaultBounds.Parse("10", "-1")
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestNewPageLinks(t *testing.T) {
	base, _ := url.Parse("http://example.com/api/menu-items?category=soups&limit=2&offset=2")

	page := NewPage([]int{3, 4}, 5, Params{Limit: 2, Offset: 2}, base)
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://example.com/api/menu-items?category=soups&limit=2&offset=4", *page.Next)
	assert.Equal(t, "http://example.com/api/menu-items?category=soups&limit=2", *page.Previous)

	last := NewPage([]int{5}, 5, Params{Limit: 2, Offset: 4}, base)
	assert.Nil(t, last.Next)

	first := NewPage([]int{}, 0, Params{Limit: 2}, base)
	assert.Nil(t, first.Next)
	assert.Nil(t, first.Previous)
}

func TestNewPageHugeOffset(t *testing.T) {
	base, _ := url.Parse("/api/menu-items")

	page := NewPage([]int{}, 5, Params{Limit: MaxLimit, Offset: math.MaxInt - 10}, base)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Contains(t, *page.Previous, fmt.Sprintf("offset=%d", math.MaxInt-10-MaxLimit))
}

func TestNewPageNilResults(t *testing.T) {
	page := NewPage[string](nil, 0, Params{Limit: 10}, nil)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)
}
