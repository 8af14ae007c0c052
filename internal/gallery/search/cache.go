package search

import (
	"strconv"
	"strings"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/Laisky/laisky-gallery-search/library/photos"
)

const (
	// DefaultCacheTTL is how long a cached first page stays usable.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultCacheCapacity is the entry count above which the oldest entries are evicted.
	DefaultCacheCapacity = 50
)

// Entry is one cached page.
type Entry struct {
	Results   []photos.Photo
	HasMore   bool
	Count     *int
	Timestamp time.Time
}

// Cache is a bounded signature-keyed page cache with a coarse TTL.
//
// Entries are kept in ascending Timestamp order so eviction pops from the front.
// Reads never refresh an entry's position.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	now      func() time.Time
	entries  *orderedmap.OrderedMap[string, Entry]
}

// NewCache creates a cache. Non-positive ttl or capacity fall back to the defaults.
func NewCache(ttl time.Duration, capacity int, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if now == nil {
		now = time.Now
	}

	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		now:      now,
		entries:  orderedmap.New[string, Entry](orderedmap.WithCapacity[string, Entry](capacity + 1)),
	}
}

func cacheKey(signature string, offset int) string {
	return signature + "|" + strconv.Itoa(offset)
}

// Get returns the entry for signature and offset, or nil when it is missing or stale.
func (c *Cache) Get(signature string, offset int) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(signature, offset)
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil
	}
	if c.now().Sub(entry.Timestamp) >= c.ttl {
		c.entries.Delete(key)
		return nil
	}

	return &entry
}

// Put stores entry, stamping it with the current time when Timestamp is zero,
// then evicts the oldest entries while the cache is over capacity.
func (c *Cache) Put(signature string, offset int, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = c.now()
	}

	key := cacheKey(signature, offset)
	c.entries.Delete(key)
	c.entries.Set(key, entry)

	// the new pair is the newest, walk back past every entry stamped later than it
	var mark *orderedmap.Pair[string, Entry]
	for p := c.entries.Newest().Prev(); p != nil && p.Value.Timestamp.After(entry.Timestamp); p = p.Prev() {
		mark = p
	}
	if mark != nil {
		_ = c.entries.MoveBefore(key, mark.Key)
	}

	for c.entries.Len() > c.capacity {
		c.entries.Delete(c.entries.Oldest().Key)
	}
}

// Invalidate drops every page cached for signature.
func (c *Cache) Invalidate(signature string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := signature + "|"
	var stale []string
	for p := c.entries.Oldest(); p != nil; p = p.Next() {
		if strings.HasPrefix(p.Key, prefix) {
			stale = append(stale, p.Key)
		}
	}
	for _, key := range stale {
		c.entries.Delete(key)
	}
}

// Purge drops everything.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = orderedmap.New[string, Entry](orderedmap.WithCapacity[string, Entry](c.capacity + 1))
}

// Len counts stored entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
