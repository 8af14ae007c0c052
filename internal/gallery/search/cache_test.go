package search

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-gallery-search/library/photos"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func samplePhotos(prefix string, n int) []photos.Photo {
	out := make([]photos.Photo, n)
	for i := range out {
		name := fmt.Sprintf("%s-%03d.jpg", prefix, i)
		out[i] = photos.Photo{
			Path:     "/library/" + name,
			Filename: name,
			Metadata: photos.Metadata{Tags: []string{prefix}},
		}
	}
	return out
}

func TestCachePutGetWithinTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(5*time.Minute, 50, clock.Now)

	count := 120
	c.Put("sunset", 0, Entry{Results: samplePhotos("sunset", 3), HasMore: false, Count: &count})
	clock.Advance(4*time.Minute + 59*time.Second)

	got := c.Get("sunset", 0)
	require.NotNil(t, got)
	require.Len(t, got.Results, 3)
	require.False(t, got.HasMore)
	require.Equal(t, 120, *got.Count)
	require.Nil(t, c.Get("sunset", 50))
	require.Nil(t, c.Get("sunrise", 0))
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(5*time.Minute, 50, clock.Now)

	c.Put("sunset", 0, Entry{Results: samplePhotos("sunset", 1)})
	clock.Advance(5 * time.Minute)

	require.Nil(t, c.Get("sunset", 0))
	require.Equal(t, 0, c.Len())
}

func TestCacheEvictsOldestOverCapacity(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(time.Hour, 50, clock.Now)

	for i := 0; i < 51; i++ {
		c.Put(fmt.Sprintf("q%02d", i), 0, Entry{Results: samplePhotos("x", 1)})
		clock.Advance(time.Second)
	}

	require.Equal(t, 50, c.Len())
	require.Nil(t, c.Get("q00", 0))
	require.NotNil(t, c.Get("q01", 0))
	require.NotNil(t, c.Get("q50", 0))
}

func TestCacheEvictsByTimestampNotInsertion(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(time.Hour, 2, clock.Now)
	base := clock.Now()

	c.Put("a", 0, Entry{Timestamp: base.Add(10 * time.Second)})
	c.Put("b", 0, Entry{Timestamp: base.Add(5 * time.Second)})
	c.Put("c", 0, Entry{Timestamp: base.Add(20 * time.Second)})

	require.Equal(t, 2, c.Len())
	require.Nil(t, c.Get("b", 0))
	require.NotNil(t, c.Get("a", 0))
	require.NotNil(t, c.Get("c", 0))
}

func TestCacheOverwriteKeepsOneEntry(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(time.Hour, 50, clock.Now)

	c.Put("sunset", 0, Entry{Results: samplePhotos("old", 1)})
	clock.Advance(time.Second)
	c.Put("sunset", 0, Entry{Results: samplePhotos("new", 2)})

	require.Equal(t, 1, c.Len())
	got := c.Get("sunset", 0)
	require.NotNil(t, got)
	require.Len(t, got.Results, 2)
	require.Equal(t, clock.Now(), got.Timestamp)
}

func TestCacheReadsDoNotRefreshRecency(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(time.Hour, 2, clock.Now)

	c.Put("a", 0, Entry{})
	clock.Advance(time.Second)
	c.Put("b", 0, Entry{})
	clock.Advance(time.Second)
	require.NotNil(t, c.Get("a", 0))
	c.Put("c", 0, Entry{})

	require.Nil(t, c.Get("a", 0))
	require.NotNil(t, c.Get("b", 0))
}

func TestCacheInvalidateAndPurge(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(time.Hour, 50, clock.Now)

	sunset := Parameters{Query: "sunset"}.Signature()
	beach := Parameters{Query: "beach"}.Signature()
	c.Put(sunset, 0, Entry{})
	c.Put(sunset, 50, Entry{})
	c.Put(beach, 0, Entry{})

	c.Invalidate(sunset)
	require.Equal(t, 1, c.Len())
	require.Nil(t, c.Get(sunset, 0))
	require.NotNil(t, c.Get(beach, 0))

	c.Purge()
	require.Equal(t, 0, c.Len())
}
