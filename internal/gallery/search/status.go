package search

import (
	"github.com/jinzhu/copier"

	"github.com/Laisky/laisky-gallery-search/library/photos"
)

// Kind is the reason a request is issued.
type Kind int

const (
	// KindFresh starts a new result list, deduplicated against the last search.
	KindFresh Kind = iota
	// KindLoadMore appends the next page.
	KindLoadMore
	// KindRetry re-issues the last search, skipping dedup.
	KindRetry
	// KindRefresh re-issues the last search, skipping dedup and the cache.
	KindRefresh
)

func (k Kind) String() string {
	switch k {
	case KindLoadMore:
		return "load_more"
	case KindRetry:
		return "retry"
	case KindRefresh:
		return "refresh"
	default:
		return "fresh"
	}
}

// Outcome tells what a request ended up doing.
type Outcome int

const (
	// OutcomeSkipped means nothing happened: duplicate search or nothing more to load.
	OutcomeSkipped Outcome = iota
	// OutcomeCacheHit means the first page came from the cache.
	OutcomeCacheHit
	// OutcomeFetched means a network page was applied.
	OutcomeFetched
	// OutcomeFailed means an error was applied.
	OutcomeFailed
	// OutcomeCancelled means the request was superseded or its context ended.
	OutcomeCancelled
	// OutcomeRejected means a load-more met a request already in flight.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCacheHit:
		return "cache_hit"
	case OutcomeFetched:
		return "fetched"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeRejected:
		return "rejected"
	default:
		return "skipped"
	}
}

// status is the loading and error state shown next to the results.
type status struct {
	loading     bool
	err         error
	resultCount *int
}

func (s *status) begin() {
	s.loading = true
	s.err = nil
}

func (s *status) fail(err error) {
	s.loading = false
	s.err = err
}

func (s *status) succeed(count int) {
	s.loading = false
	s.err = nil
	s.resultCount = &count
}

// Snapshot is a copy of the gallery state, safe to keep after later changes.
//
// Consumers receiving snapshots asynchronously drop any whose Version is
// lower than one already seen.
type Snapshot struct {
	Version      uint64
	Params       Parameters
	PendingQuery string
	Photos       []photos.Photo
	Loading      bool
	Err          error
	HasMore      bool
	Offset       int
	ResultCount  *int
	Searched     bool
}

// Empty reports a finished search with no error and nothing found.
func (s Snapshot) Empty() bool {
	return s.Searched && !s.Loading && s.Err == nil && len(s.Photos) == 0
}

// CanLoadMore reports whether a load-more would issue a request.
func (s Snapshot) CanLoadMore() bool {
	return s.Searched && s.HasMore && !s.Loading
}

// clonePhotos deep copies ps so published snapshots never share tag slices.
func clonePhotos(ps []photos.Photo) ([]photos.Photo, error) {
	if len(ps) == 0 {
		return []photos.Photo{}, nil
	}

	var out []photos.Photo
	if err := copier.CopyWithOption(&out, ps, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return out, nil
}
