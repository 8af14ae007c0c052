// Package search orchestrates photo searches for the gallery view.
//
// A Controller debounces typed queries, deduplicates identical searches,
// serves recent first pages from a bounded cache, pages through results,
// and guarantees that a superseded request never overwrites newer results.
package search

import (
	"context"
	"sync"
	"time"

	errors "github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	appLog "github.com/Laisky/laisky-gallery-search/library/log"
)

// Option customises a Controller during construction.
type Option func(*Controller) error

// WithPageSize overrides how many photos each request asks for.
func WithPageSize(size int) Option {
	return func(c *Controller) error {
		if size <= 0 {
			return errors.Errorf("page size must be positive, got %d", size)
		}
		c.pageSize = size
		return nil
	}
}

// WithDebounce overrides the quiet period applied to typed queries.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) error {
		if d <= 0 {
			return errors.Errorf("debounce must be positive, got %s", d)
		}
		c.debounce = d
		return nil
	}
}

// WithCacheTTL overrides how long cached first pages are served.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Controller) error {
		if ttl <= 0 {
			return errors.Errorf("cache ttl must be positive, got %s", ttl)
		}
		c.cacheTTL = ttl
		return nil
	}
}

// WithCacheCapacity overrides how many cached pages are kept.
func WithCacheCapacity(n int) Option {
	return func(c *Controller) error {
		if n <= 0 {
			return errors.Errorf("cache capacity must be positive, got %d", n)
		}
		c.cacheCapacity = n
		return nil
	}
}

// WithClock supplies the time source of the cache, primarily for testing.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) error {
		if now != nil {
			c.now = now
		}
		return nil
	}
}

// WithLogger overrides the controller logger.
func WithLogger(logger logSDK.Logger) Option {
	return func(c *Controller) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithOnChange registers fn to receive every published snapshot.
//
// fn runs on the goroutine that changed the state and must not block.
// Snapshots may arrive out of order, compare Version.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Controller) error {
		c.onChange = fn
		return nil
	}
}

// WithInitialParameters replaces DefaultParameters as the starting state.
func WithInitialParameters(p Parameters) Option {
	return func(c *Controller) error {
		c.initial = p
		return nil
	}
}

// Controller is the search state behind the gallery view.
type Controller struct {
	pageSize      int
	debounce      time.Duration
	cacheTTL      time.Duration
	cacheCapacity int
	now           func() time.Time
	logger        logSDK.Logger
	onChange      func(Snapshot)
	initial       Parameters

	store     *Store
	cache     *Cache
	coord     *coordinator
	debouncer *Debouncer

	ctx    context.Context
	cancel context.CancelFunc

	closeMu sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
}

// New creates a controller backed by searcher. No search runs until one is requested.
func New(searcher Searcher, opts ...Option) (*Controller, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}

	c := &Controller{
		pageSize:      DefaultPageSize,
		debounce:      DefaultDebounce,
		cacheTTL:      DefaultCacheTTL,
		cacheCapacity: DefaultCacheCapacity,
		now:           func() time.Time { return gutils.Clock.GetUTCNow() },
		logger:        appLog.Logger.Named("gallery_search"),
		initial:       DefaultParameters(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.Wrap(err, "apply option")
		}
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.store = NewStore(c.initial)
	c.cache = NewCache(c.cacheTTL, c.cacheCapacity, c.now)
	c.coord = &coordinator{
		searcher:  searcher,
		store:     c.store,
		cache:     c.cache,
		pager:     NewPager(c.pageSize),
		logger:    c.logger,
		onChange:  c.onChange,
		committed: c.initial,
	}
	c.debouncer = NewDebouncer(c.debounce, func(query string) {
		c.dispatch(KindFresh, &query)
	})

	return c, nil
}

// SetQuery records typed input. The search runs once typing has paused.
func (c *Controller) SetQuery(query string) {
	c.store.SetPendingQuery(query)
	c.debouncer.Push(query)
}

// SetMode changes the search mode and searches immediately.
func (c *Controller) SetMode(m Mode) {
	c.store.SetMode(m)
	c.dispatch(KindFresh, nil)
}

func (c *Controller) SetSortBy(sortBy string) {
	c.store.SetSortBy(sortBy)
	c.dispatch(KindFresh, nil)
}

func (c *Controller) SetTypeFilter(typeFilter string) {
	c.store.SetTypeFilter(typeFilter)
	c.dispatch(KindFresh, nil)
}

func (c *Controller) SetSourceFilter(f SourceFilter) {
	c.store.SetSourceFilter(f)
	c.dispatch(KindFresh, nil)
}

func (c *Controller) SetFavoritesFilter(favorites string) {
	c.store.SetFavoritesFilter(favorites)
	c.dispatch(KindFresh, nil)
}

func (c *Controller) SetTag(tag string) {
	c.store.SetTag(tag)
	c.dispatch(KindFresh, nil)
}

// SetDateRange changes both date bounds at once, either may be empty.
func (c *Controller) SetDateRange(from, to string) {
	c.store.SetDateRange(from, to)
	c.dispatch(KindFresh, nil)
}

// Search runs query now, dropping any debounced input, and returns once it is applied.
func (c *Controller) Search(ctx context.Context, query string) (Outcome, error) {
	c.debouncer.Cancel()
	return c.runSync(ctx, KindFresh, &query)
}

// LoadMore appends the next page of the current search.
// It is a no-op when nothing more is available and fails with
// ErrRequestInFlight while another request is running.
func (c *Controller) LoadMore(ctx context.Context) (Outcome, error) {
	return c.runSync(ctx, KindLoadMore, nil)
}

// RetryLastSearch re-runs the current search even if it is identical to the last one.
func (c *Controller) RetryLastSearch(ctx context.Context) (Outcome, error) {
	return c.runSync(ctx, KindRetry, nil)
}

// Refresh re-fetches the current search from the network, bypassing the cache.
func (c *Controller) Refresh(ctx context.Context) (Outcome, error) {
	return c.runSync(ctx, KindRefresh, nil)
}

// ClearError hides the current error. Results and pagination are untouched.
func (c *Controller) ClearError() {
	c.coord.clearError()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	return c.coord.snapshot()
}

// Parameters returns the parameters the next search would use.
func (c *Controller) Parameters() Parameters {
	return c.store.Snapshot()
}

// InFlight reports whether a request is running.
func (c *Controller) InFlight() bool {
	return c.coord.inFlight()
}

// Wait blocks until every search started so far has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close drops pending input, cancels the running request and waits for it to unwind.
// Every later operation returns ErrClosed.
func (c *Controller) Close() error {
	c.debouncer.Stop()

	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	c.closeMu.Unlock()

	c.cancel()
	c.coord.close()
	c.wg.Wait()
	c.logger.Debug("search controller closed")
	return nil
}

func (c *Controller) runSync(ctx context.Context, kind Kind, query *string) (Outcome, error) {
	c.closeMu.RLock()
	if c.closed {
		c.closeMu.RUnlock()
		return OutcomeSkipped, ErrClosed
	}
	c.wg.Add(1)
	c.closeMu.RUnlock()
	defer c.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	return c.coord.run(ctx, kind, query)
}

// dispatch runs a search in the background.
func (c *Controller) dispatch(kind Kind, query *string) {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	if c.closed {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		outcome, err := c.coord.run(c.ctx, kind, query)
		if err != nil && !errors.Is(err, ErrClosed) {
			c.logger.Debug("background search", zap.String("outcome", outcome.String()), zap.Error(err))
		}
	}()
}
