package pagination

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the page size when a limit is not provided.
	DefaultLimit = 50
	// MaxLimit caps how many rows any list query can return.
	MaxLimit = 100
)

var ErrInvalidParams = errors.New("limit and offset must be non-negative integers")

// Params holds limit/offset inputs from a list request.
type Params struct {
	Limit  int
	Offset int
}

// Bounds are the configured page-size limits.
type Bounds struct {
	Default int
	Max     int
}

// DefaultBounds uses the package constants
var DefaultBounds = Bounds{Default: DefaultLimit, Max: MaxLimit}

// NormalizeLimit enforces the default and maximum limits.
func (b Bounds) NormalizeLimit(limit int) int {
	max := b.Max
	if max <= 0 {
		max = MaxLimit
	}
	def := b.Default
	if def <= 0 || def > max {
		def = max
	}
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// Parse reads raw query values. Empty strings fall back to defaults.
func (b Bounds) Parse(rawLimit, rawOffset string) (Params, error) {
	var p Params
	if s := strings.TrimSpace(rawLimit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Params{}, ErrInvalidParams
		}
		p.Limit = n
	}
	if s := strings.TrimSpace(rawOffset); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Params{}, ErrInvalidParams
		}
		p.Offset = n
	}
	p.Limit = b.NormalizeLimit(p.Limit)
	return p, nil
}

// Page is the list envelope returned by every collection endpoint.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPage builds the envelope. base is the request URL; next/previous keep
// its other query parameters.
func NewPage[T any](results []T, count int64, p Params, base *url.URL) Page[T] {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: count, Results: results}
	if base == nil {
		return page
	}
	if p.Limit > 0 && count-int64(p.Offset) > int64(p.Limit) {
		next := pageURL(base, p.Limit, p.Offset+p.Limit)
		page.Next = &next
	}
	if p.Offset > 0 {
		prevOffset := p.Offset - p.Limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		prev := pageURL(base, p.Limit, prevOffset)
		page.Previous = &prev
	}
	return page
}

func pageURL(base *url.URL, limit, offset int) string {
	u := *base
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
