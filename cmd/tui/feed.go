package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Laisky/laisky-gallery-search/internal/gallery/search"
)

// snapshotMsg carries a controller snapshot into the update loop.
type snapshotMsg search.Snapshot

// Feed hands the newest controller snapshot to the view.
//
// Publish never blocks, so it can be registered with search.WithOnChange.
// Only the highest version survives until the view reads it.
type Feed struct {
	mu     sync.Mutex
	latest search.Snapshot
	seen   bool
	notify chan struct{}
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{notify: make(chan struct{}, 1)}
}

// Publish records snap unless a newer one is already waiting.
func (f *Feed) Publish(snap search.Snapshot) {
	f.mu.Lock()
	if f.seen && snap.Version <= f.latest.Version {
		f.mu.Unlock()
		return
	}
	f.latest, f.seen = snap, true
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// Next waits for the next snapshot or for ctx to end.
func (f *Feed) Next(ctx context.Context) (search.Snapshot, bool) {
	select {
	case <-ctx.Done():
		return search.Snapshot{}, false
	case <-f.notify:
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, true
}

// wait is the tea command delivering the next snapshot.
func (f *Feed) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		snap, ok := f.Next(ctx)
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}
