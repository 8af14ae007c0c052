package search

// DefaultPageSize is how many photos each request asks for.
const DefaultPageSize = 50

// PageState tells whether the next request starts a new result list or extends it.
type PageState int

const (
	// PageFresh means the next request replaces the list.
	PageFresh PageState = iota
	// PagePaging means a first page landed and further pages append.
	PagePaging
)

func (s PageState) String() string {
	switch s {
	case PagePaging:
		return "paging"
	default:
		return "fresh"
	}
}

// Pager tracks offset and hasMore for the active result list.
//
// Not safe for concurrent use; the coordinator guards it.
type Pager struct {
	pageSize int
	offset   int
	hasMore  bool
	state    PageState
}

// NewPager creates a pager in the fresh state with nothing to load.
func NewPager(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{pageSize: pageSize}
}

// PageSize returns the request limit.
func (p *Pager) PageSize() int { return p.pageSize }

// Offset returns the offset the next load-more would use.
func (p *Pager) Offset() int { return p.offset }

// HasMore reports whether another page may exist.
func (p *Pager) HasMore() bool { return p.hasMore }

// State returns the current page state.
func (p *Pager) State() PageState { return p.state }

// Start resets for a new search.
func (p *Pager) Start() {
	p.offset = 0
	p.hasMore = true
	p.state = PageFresh
}

// ApplyFirstPage records a first page of n results, from the server or the cache.
func (p *Pager) ApplyFirstPage(n int, hasMore bool) {
	p.offset = n
	p.hasMore = hasMore
	p.state = PagePaging
}

// Advance records an appended page of n results.
// A short page means the server ran out.
func (p *Pager) Advance(n int) {
	p.offset += n
	p.hasMore = n >= p.pageSize
	p.state = PagePaging
}

// Fail stops paging until the next Start. The offset is kept.
func (p *Pager) Fail() {
	p.hasMore = false
}
