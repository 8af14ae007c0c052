package search

import (
	"fmt"

	errors "github.com/Laisky/errors/v2"
)

var (
	// ErrRequestInFlight rejects a load-more issued while another request is running.
	ErrRequestInFlight = errors.New("search request already in flight")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("search controller closed")
)

// SearchError is a genuine failure of one search request.
type SearchError struct {
	Query    string
	Offset   int
	LoadMore bool
	Err      error
}

func (e *SearchError) Error() string {
	if e.LoadMore {
		return fmt.Sprintf("load more for %q at offset %d: %v", e.Query, e.Offset, e.Err)
	}
	return fmt.Sprintf("search %q: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}
