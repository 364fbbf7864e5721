// Package pagination windows ordered result sets and reports page metadata.
package pagination

import (
	"context"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Params is a normalized page request.
type Params struct {
	Page  int
	Limit int
}

// Offset is the number of items preceding the requested page. It saturates
// at math.MaxInt instead of overflowing, which lands past the end of any
// result set.
func (p Params) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Normalize coerces non-positive values to the defaults.
func Normalize(page, limit int) Params {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Params{Page: page, Limit: limit}
}

// ParseParams reads raw query values. Anything that is not a positive
// integer falls back to the default.
func ParseParams(page, limit string) Params {
	return Normalize(atoi(page), atoi(limit))
}

func atoi(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

// Page is one window of an ordered result set.
type Page[T any] struct {
	Items       []T  `json:"items"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalItems  int  `json:"totalItems"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Source is an already filtered and sorted result set.
type Source[T any] interface {
	Count(ctx context.Context) (int, error)
	Fetch(ctx context.Context, offset, limit int) ([]T, error)
}

// Paginate counts src and fetches the window described by p.
func Paginate[T any](ctx context.Context, src Source[T], p Params) (Page[T], error) {
	p = Normalize(p.Page, p.Limit)

	total, err := src.Count(ctx)
	if err != nil {
		return Page[T]{}, err
	}

	page := newPage[T](p, total)
	offset := p.Offset()
	if offset >= total {
		return page, nil
	}

	items, err := src.Fetch(ctx, offset, p.Limit)
	if err != nil {
		return Page[T]{}, err
	}
	if items != nil {
		page.Items = items
	}
	return page, nil
}

func newPage[T any](p Params, total int) Page[T] {
	totalPages := total / p.Limit
	if total%p.Limit != 0 {
		totalPages++
	}
	return Page[T]{
		Items:       []T{},
		Page:        p.Page,
		Limit:       p.Limit,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNextPage: p.Page < totalPages,
		HasPrevPage: p.Page > 1,
	}
}

// Convert rebuilds a page around items derived from p.Items, keeping the
// metadata. Used after enriching a fetched window.
func Convert[T, U any](p Page[T], items []U) Page[U] {
	if items == nil {
		items = []U{}
	}
	return Page[U]{
		Items:       items,
		Page:        p.Page,
		Limit:       p.Limit,
		TotalItems:  p.TotalItems,
		TotalPages:  p.TotalPages,
		HasNextPage: p.HasNextPage,
		HasPrevPage: p.HasPrevPage,
	}
}

// SliceSource serves a fully materialized result set.
type SliceSource[T any] []T

func (s SliceSource[T]) Count(context.Context) (int, error) {
	return len(s), nil
}

func (s SliceSource[T]) Fetch(_ context.Context, offset, limit int) ([]T, error) {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s) {
		return []T{}, nil
	}
	end := len(s)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, s[offset:end])
	return out, nil
}
