// Package paginate follows server-issued cursors and concatenates pages into
// one ordered collection.
package paginate

import (
	"context"
	"errors"
)

// Direction names the cursor field a list endpoint uses.
type Direction string

const (
	// Forward lists return the following page in "next".
	Forward Direction = "next"
	// Backward lists return the page of older items in "backward".
	Backward Direction = "backward"
)

// Param is the query parameter that carries the cursor on the next request.
func (d Direction) Param() string { return string(d) }

// Envelope is the wire shape shared by every list endpoint.
type Envelope[T any] struct {
	List     []T    `json:"list"`
	Next     string `json:"next,omitempty"`
	Backward string `json:"backward,omitempty"`
}

// Cursor returns the cursor for direction d.
func (e Envelope[T]) Cursor(d Direction) string {
	if d == Backward {
		return e.Backward
	}
	return e.Next
}

// Page is one fetched page.
type Page[T any] struct {
	Items  []T
	Cursor string
}

// PageOf converts an envelope into a page for direction d.
func PageOf[T any](e Envelope[T], d Direction) Page[T] {
	return Page[T]{Items: e.List, Cursor: e.Cursor(d)}
}

// FetchFunc retrieves the page identified by cursor ("" for the first page).
type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Result is the outcome of a completed pagination loop.
type Result[T any] struct {
	Items []T
	// Cursor is the last cursor observed. It is non-empty when the loop
	// stopped on the page budget and more pages remain.
	Cursor string
	Pages  int
}

// Envelope converts r back into the wire shape, placing the resume cursor in
// the field for direction d.
func (r Result[T]) Envelope(d Direction) Envelope[T] {
	env := Envelope[T]{List: r.Items}
	if d == Backward {
		env.Backward = r.Cursor
	} else {
		env.Next = r.Cursor
	}
	return env
}

// ErrNilFetch reports a missing fetch function.
var ErrNilFetch = errors.New("paginate: fetch func is nil")

// Collect fetches pages starting at start until the server stops returning a
// cursor or maxPages pages have been read (0 means unbounded). Pages are
// fetched one at a time; any failure discards the accumulated items.
func Collect[T any](ctx context.Context, start string, maxPages int, fetch FetchFunc[T]) (Result[T], error) {
	if fetch == nil {
		return Result[T]{}, ErrNilFetch
	}
	var (
		items  = make([]T, 0)
		cursor = start
		pages  int
	)
	for {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return Result[T]{}, err
		}
		items = append(items, page.Items...)
		cursor = page.Cursor
		pages++

		if maxPages > 0 && pages >= maxPages {
			break
		}
		if cursor == "" {
			break
		}
	}
	return Result[T]{Items: items, Cursor: cursor, Pages: pages}, nil
}
