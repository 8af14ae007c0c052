package search

import (
	"strconv"
	"strings"
	"sync"

	errors "github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-gallery-search/library/photos"
)

// Mode selects how the endpoint matches the query.
type Mode string

const (
	ModeMetadata Mode = "metadata"
	ModeSemantic Mode = "semantic"
	ModeHybrid   Mode = "hybrid"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeMetadata, ModeSemantic, ModeHybrid}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == strings.TrimSpace(s) {
			return m, nil
		}
	}
	return "", errors.Errorf("unknown search mode %q", s)
}

// SourceFilter restricts results by storage location.
type SourceFilter string

const (
	SourceAll    SourceFilter = "all"
	SourceLocal  SourceFilter = "local"
	SourceCloud  SourceFilter = "cloud"
	SourceHybrid SourceFilter = "hybrid"
)

// SourceFilters lists every source filter in display order.
var SourceFilters = []SourceFilter{SourceAll, SourceLocal, SourceCloud, SourceHybrid}

// ParseSourceFilter validates a source filter name.
func ParseSourceFilter(s string) (SourceFilter, error) {
	for _, f := range SourceFilters {
		if string(f) == strings.TrimSpace(s) {
			return f, nil
		}
	}
	return "", errors.Errorf("unknown source filter %q", s)
}

var (
	// SortOptions lists the sort orders the endpoint accepts.
	SortOptions = []string{"date_desc", "date_asc", "name_asc", "name_desc", "size_desc"}
	// TypeFilters lists the media type filters.
	TypeFilters = []string{"all", "photo", "video"}
	// FavoritesFilters lists the favorites filters.
	FavoritesFilters = []string{"all", "favorites"}
)

// Parameters is an immutable snapshot of everything that shapes a search.
//
// Tag, DateFrom and DateTo use the empty string for "not set".
type Parameters struct {
	Query           string
	Mode            Mode
	SortBy          string
	TypeFilter      string
	SourceFilter    SourceFilter
	FavoritesFilter string
	Tag             string
	DateFrom        string
	DateTo          string
}

// DefaultParameters is the state of a freshly mounted gallery: browse everything.
func DefaultParameters() Parameters {
	return Parameters{
		Mode:            ModeHybrid,
		SortBy:          "date_desc",
		TypeFilter:      "all",
		SourceFilter:    SourceAll,
		FavoritesFilter: "all",
	}
}

// Signature is the dedup and cache key of p.
// Fields are quoted before joining, so two snapshots share a signature iff they are equal.
func (p Parameters) Signature() string {
	fields := [...]string{
		p.Query,
		string(p.Mode),
		p.SortBy,
		p.TypeFilter,
		string(p.SourceFilter),
		p.FavoritesFilter,
		p.Tag,
		p.DateFrom,
		p.DateTo,
	}

	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(strconv.Quote(f))
	}
	return sb.String()
}

// Request builds the network request for one page of p.
func (p Parameters) Request(limit, offset int) photos.SearchRequest {
	return photos.SearchRequest{
		Query:           p.Query,
		Mode:            string(p.Mode),
		Limit:           limit,
		Offset:          offset,
		SortBy:          p.SortBy,
		TypeFilter:      p.TypeFilter,
		FavoritesFilter: p.FavoritesFilter,
		Tag:             p.Tag,
		DateFrom:        p.DateFrom,
		DateTo:          p.DateTo,
		SourceFilter:    string(p.SourceFilter),
	}
}

// Store holds the current search parameters.
//
// Setters are plain assignments without validation. The query has two values:
// the pending one the user is typing and the committed one searches run with.
type Store struct {
	mu      sync.RWMutex
	params  Parameters
	pending string
}

// NewStore creates a store holding initial.
func NewStore(initial Parameters) *Store {
	return &Store{params: initial, pending: initial.Query}
}

// Snapshot returns a copy of the committed parameters.
func (s *Store) Snapshot() Parameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// Query returns the committed query.
func (s *Store) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params.Query
}

// PendingQuery returns the latest typed query, committed or not.
func (s *Store) PendingQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// SetPendingQuery records typed input that has not been committed yet.
func (s *Store) SetPendingQuery(q string) {
	s.mu.Lock()
	s.pending = q
	s.mu.Unlock()
}

// CommitQuery makes q the query searches run with.
func (s *Store) CommitQuery(q string) {
	s.mu.Lock()
	s.params.Query = q
	s.pending = q
	s.mu.Unlock()
}

func (s *Store) SetMode(m Mode) {
	s.mu.Lock()
	s.params.Mode = m
	s.mu.Unlock()
}

func (s *Store) SetSortBy(sortBy string) {
	s.mu.Lock()
	s.params.SortBy = sortBy
	s.mu.Unlock()
}

func (s *Store) SetTypeFilter(typeFilter string) {
	s.mu.Lock()
	s.params.TypeFilter = typeFilter
	s.mu.Unlock()
}

func (s *Store) SetSourceFilter(f SourceFilter) {
	s.mu.Lock()
	s.params.SourceFilter = f
	s.mu.Unlock()
}

func (s *Store) SetFavoritesFilter(favorites string) {
	s.mu.Lock()
	s.params.FavoritesFilter = favorites
	s.mu.Unlock()
}

func (s *Store) SetTag(tag string) {
	s.mu.Lock()
	s.params.Tag = tag
	s.mu.Unlock()
}

// SetDateRange sets both bounds, either may be empty.
func (s *Store) SetDateRange(from, to string) {
	s.mu.Lock()
	s.params.DateFrom = from
	s.params.DateTo = to
	s.mu.Unlock()
}
