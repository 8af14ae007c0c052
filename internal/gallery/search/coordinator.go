package search

import (
	"context"
	"slices"
	"sync"

	errors "github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-gallery-search/library/photos"
)

// Searcher runs one page of a search against the photo endpoint.
type Searcher interface {
	Search(ctx context.Context, req photos.SearchRequest) (*photos.SearchResponse, error)
}

// request is the single in-flight search, identified by id.
type request struct {
	id     uint64
	kind   Kind
	sig    string
	params Parameters
	offset int
	cancel context.CancelFunc
}

// coordinator owns the result list, the pager, the cache and the status.
// Every mutation happens under mu, the network call never does.
type coordinator struct {
	mu       sync.Mutex
	searcher Searcher
	store    *Store
	cache    *Cache
	pager    *Pager
	logger   logSDK.Logger
	onChange func(Snapshot)

	photos    []photos.Photo
	status    status
	committed Parameters
	lastSig   string
	searched  bool
	active    *request
	nextID    uint64
	version   uint64
	closed    bool
}

// run issues a request of kind. When query is not nil it becomes the committed
// query first, otherwise the store's committed query is used.
func (c *coordinator) run(ctx context.Context, kind Kind, query *string) (Outcome, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return OutcomeSkipped, ErrClosed
	}

	var req *request
	if kind == KindLoadMore {
		if c.active != nil {
			activeID := c.active.id
			c.mu.Unlock()
			c.logger.Debug("reject load more, request in flight",
				zap.Uint64("active_request", activeID))
			return OutcomeRejected, ErrRequestInFlight
		}
		if !c.searched || !c.pager.HasMore() {
			c.mu.Unlock()
			return OutcomeSkipped, nil
		}

		req = &request{
			kind:   kind,
			sig:    c.committed.Signature(),
			params: c.committed,
			offset: c.pager.Offset(),
		}
	} else {
		if query != nil {
			c.store.CommitQuery(*query)
		}
		params := c.store.Snapshot()
		sig := params.Signature()
		if kind == KindFresh && sig == c.lastSig {
			c.mu.Unlock()
			c.logger.Debug("skip duplicate search", zap.String("query", params.Query))
			return OutcomeSkipped, nil
		}

		c.supersedeLocked()
		c.lastSig = sig
		c.committed = params
		c.searched = true
		c.pager.Start()

		if kind == KindRefresh {
			c.cache.Invalidate(sig)
		} else if entry := c.cache.Get(sig, 0); entry != nil {
			c.photos = slices.Clone(entry.Results)
			c.pager.ApplyFirstPage(len(entry.Results), entry.HasMore)
			count := len(entry.Results)
			if entry.Count != nil {
				count = *entry.Count
			}
			c.status.succeed(count)
			snap := c.snapshotLocked(true)
			c.mu.Unlock()

			c.logger.Debug("serve search from cache",
				zap.String("query", params.Query),
				zap.Int("results", len(entry.Results)))
			c.publish(snap)
			return OutcomeCacheHit, nil
		}

		req = &request{kind: kind, sig: sig, params: params}
	}

	c.nextID++
	req.id = c.nextID
	reqCtx, cancel := context.WithCancel(ctx)
	req.cancel = cancel
	c.active = req
	c.status.begin()
	snap := c.snapshotLocked(true)
	c.mu.Unlock()
	c.publish(snap)

	c.logger.Debug("issue search",
		zap.Uint64("request", req.id),
		zap.String("kind", req.kind.String()),
		zap.String("query", req.params.Query),
		zap.Int("offset", req.offset))
	resp, err := c.searcher.Search(reqCtx, req.params.Request(c.pager.PageSize(), req.offset))
	cancel()

	return c.finish(req, resp, err)
}

// finish applies the result of req unless a newer request replaced it.
func (c *coordinator) finish(req *request, resp *photos.SearchResponse, err error) (Outcome, error) {
	c.mu.Lock()
	if c.active != req {
		c.mu.Unlock()
		c.logger.Debug("drop superseded search", zap.Uint64("request", req.id))
		return OutcomeCancelled, nil
	}
	c.active = nil

	var (
		outcome Outcome
		retErr  error
	)
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		c.status.loading = false
		if req.kind != KindLoadMore {
			// the list on screen belongs to an older signature
			c.lastSig = ""
			c.pager.Fail()
		}
		outcome = OutcomeCancelled
		c.logger.Debug("search cancelled", zap.Uint64("request", req.id))
	case err != nil:
		serr := &SearchError{
			Query:    req.params.Query,
			Offset:   req.offset,
			LoadMore: req.kind == KindLoadMore,
			Err:      err,
		}
		if req.kind != KindLoadMore {
			c.photos = nil
			c.lastSig = ""
			c.status.resultCount = nil
		}
		c.pager.Fail()
		c.status.fail(serr)
		outcome, retErr = OutcomeFailed, serr
		c.logger.Warn("search failed",
			zap.Uint64("request", req.id),
			zap.String("kind", req.kind.String()),
			zap.Error(err))
	default:
		var results []photos.Photo
		var total *int
		if resp != nil {
			results, total = resp.Results, resp.Count
		}

		n := len(results)
		if req.kind == KindLoadMore {
			c.photos = append(c.photos, results...)
			c.pager.Advance(n)
		} else {
			hasMore := n >= c.pager.PageSize()
			c.photos = slices.Clone(results)
			c.pager.ApplyFirstPage(n, hasMore)
			c.cache.Put(req.sig, 0, Entry{
				Results: slices.Clone(results),
				HasMore: hasMore,
				Count:   cloneCount(total),
			})
		}

		count := len(c.photos)
		if total != nil {
			count = *total
		}
		c.status.succeed(count)
		outcome = OutcomeFetched
		c.logger.Debug("search applied",
			zap.Uint64("request", req.id),
			zap.Int("results", n),
			zap.Int("offset", c.pager.Offset()),
			zap.Bool("has_more", c.pager.HasMore()))
	}

	snap := c.snapshotLocked(true)
	c.mu.Unlock()
	c.publish(snap)
	return outcome, retErr
}

// supersedeLocked cancels the in-flight request, its result will be dropped.
func (c *coordinator) supersedeLocked() {
	if c.active == nil {
		return
	}

	c.logger.Debug("supersede search", zap.Uint64("request", c.active.id))
	c.active.cancel()
	c.active = nil
	c.status.loading = false
}

func (c *coordinator) clearError() {
	c.mu.Lock()
	if c.status.err == nil {
		c.mu.Unlock()
		return
	}
	c.status.err = nil
	snap := c.snapshotLocked(true)
	c.mu.Unlock()
	c.publish(snap)
}

func (c *coordinator) inFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

func (c *coordinator) snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(false)
}

// close cancels the in-flight request and refuses new ones.
func (c *coordinator) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.supersedeLocked()
}

func (c *coordinator) snapshotLocked(bump bool) Snapshot {
	if bump {
		c.version++
	}

	list, err := clonePhotos(c.photos)
	if err != nil {
		c.logger.Error("copy photos for snapshot", zap.Error(err))
		list = slices.Clone(c.photos)
	}

	return Snapshot{
		Version:      c.version,
		Params:       c.committed,
		PendingQuery: c.store.PendingQuery(),
		Photos:       list,
		Loading:      c.status.loading,
		Err:          c.status.err,
		HasMore:      c.pager.HasMore(),
		Offset:       c.pager.Offset(),
		ResultCount:  cloneCount(c.status.resultCount),
		Searched:     c.searched,
	}
}

func (c *coordinator) publish(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}

func cloneCount(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
