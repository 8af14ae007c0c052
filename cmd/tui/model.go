package tui

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Laisky/laisky-gallery-search/internal/gallery/prefs"
	"github.com/Laisky/laisky-gallery-search/internal/gallery/search"
)

// Gallery is the search state the view drives.
type Gallery interface {
	SetQuery(query string)
	SetMode(m search.Mode)
	SetSortBy(sortBy string)
	SetTypeFilter(typeFilter string)
	SetSourceFilter(f search.SourceFilter)
	SetFavoritesFilter(favorites string)
	Search(ctx context.Context, query string) (search.Outcome, error)
	LoadMore(ctx context.Context) (search.Outcome, error)
	RetryLastSearch(ctx context.Context) (search.Outcome, error)
	Refresh(ctx context.Context) (search.Outcome, error)
	ClearError()
	Snapshot() search.Snapshot
	Parameters() search.Parameters
}

// ZoomStore persists the grid zoom level.
type ZoomStore interface {
	Zoom(ctx context.Context) int
	SetZoom(ctx context.Context, level int) (int, error)
}

// opDoneMsg reports the end of a controller operation started by the view.
type opDoneMsg struct {
	op      string
	outcome search.Outcome
	err     error
}

type zoomSavedMsg struct {
	err error
}

// keyMap defines the key bindings of the gallery
type keyMap struct {
	Focus     key.Binding
	Submit    key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	LoadMore  key.Binding
	Mode      key.Binding
	Sort      key.Binding
	Type      key.Binding
	Source    key.Binding
	Favorites key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Retry     key.Binding
	Refresh   key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Focus:     key.NewBinding(key.WithKeys("/", "tab"), key.WithHelp("/", "search")),
	Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search now")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
	Up:        key.NewBinding(key.WithKeys("up", "k")),
	Down:      key.NewBinding(key.WithKeys("down", "j")),
	Left:      key.NewBinding(key.WithKeys("left", "h")),
	Right:     key.NewBinding(key.WithKeys("right", "l")),
	LoadMore:  key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "load more")),
	Mode:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
	Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Type:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "type")),
	Source:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "source")),
	Favorites: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorites")),
	ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more columns")),
	ZoomOut:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "fewer columns")),
	Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
	Refresh:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Model is the gallery view following the Bubble Tea architecture
type Model struct {
	ctx       context.Context
	gallery   Gallery
	feed      *Feed
	zoomStore ZoomStore

	input   textinput.Model
	typing  bool
	spinner spinner.Model

	snap   search.Snapshot
	zoom   int
	cursor int
	notice string

	width  int
	height int

	quitting bool
}

// NewModel creates the gallery view. zoomStore may be nil, zoom changes are then not persisted.
func NewModel(ctx context.Context, gallery Gallery, feed *Feed, zoomStore ZoomStore) Model {
	if feed == nil {
		feed = NewFeed()
	}

	input := textinput.New()
	input.Placeholder = "sunset, beach, 2024..."
	input.CharLimit = 256
	input.Width = 50
	input.Prompt = "🔍 "
	input.PromptStyle = GetInputLabelStyle()
	input.SetValue(gallery.Parameters().Query)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = GetProgressStyle()

	zoom := prefs.DefaultZoom
	if zoomStore != nil {
		zoom = zoomStore.Zoom(ctx)
	}

	return Model{
		ctx:       ctx,
		gallery:   gallery,
		feed:      feed,
		zoomStore: zoomStore,
		input:     input,
		spinner:   sp,
		snap:      gallery.Snapshot(),
		zoom:      prefs.ClampZoom(zoom),
	}
}

// Init browses the whole library and starts listening for snapshots
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.feed.wait(m.ctx),
		m.run("search", func(ctx context.Context) (search.Outcome, error) {
			return m.gallery.Search(ctx, m.input.Value())
		}),
	)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-12)
		return m, nil

	case snapshotMsg:
		m.apply(search.Snapshot(msg))
		return m, m.feed.wait(m.ctx)

	case opDoneMsg:
		m.apply(m.gallery.Snapshot())
		if errors.Is(msg.err, search.ErrRequestInFlight) {
			m.notice = "still loading, try again in a moment"
		}
		return m, nil

	case zoomSavedMsg:
		if msg.err != nil {
			m.notice = "could not save zoom level: " + msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.typing {
			return m.handleTyping(msg)
		}
		return m.handleBrowse(msg)
	}

	return m, nil
}

// apply keeps snap unless the view already shows a newer one.
func (m *Model) apply(snap search.Snapshot) {
	if snap.Version < m.snap.Version {
		return
	}

	m.snap = snap
	if m.cursor >= len(snap.Photos) {
		m.cursor = max(0, len(snap.Photos)-1)
	}
}

func (m Model) handleTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Back):
		m.typing = false
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Submit):
		m.typing = false
		m.input.Blur()
		query := m.input.Value()
		return m, m.run("search", func(ctx context.Context) (search.Outcome, error) {
			return m.gallery.Search(ctx, query)
		})
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != prev {
		m.notice = ""
		m.gallery.SetQuery(value)
	}

	return m, cmd
}

func (m Model) handleBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	params := m.gallery.Parameters()
	m.notice = ""

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Focus):
		m.typing = true
		return m, m.input.Focus()

	case key.Matches(msg, keys.Back):
		if m.snap.Err != nil {
			m.gallery.ClearError()
			m.apply(m.gallery.Snapshot())
		}
		return m, nil

	case key.Matches(msg, keys.Left):
		return m.moveCursor(-1)
	case key.Matches(msg, keys.Right):
		return m.moveCursor(1)
	case key.Matches(msg, keys.Up):
		return m.moveCursor(-m.zoom)
	case key.Matches(msg, keys.Down):
		return m.moveCursor(m.zoom)

	case key.Matches(msg, keys.LoadMore):
		return m, m.loadMore()

	case key.Matches(msg, keys.Mode):
		m.gallery.SetMode(cycle(search.Modes, params.Mode))
	case key.Matches(msg, keys.Sort):
		m.gallery.SetSortBy(cycle(search.SortOptions, params.SortBy))
	case key.Matches(msg, keys.Type):
		m.gallery.SetTypeFilter(cycle(search.TypeFilters, params.TypeFilter))
	case key.Matches(msg, keys.Source):
		m.gallery.SetSourceFilter(cycle(search.SourceFilters, params.SourceFilter))
	case key.Matches(msg, keys.Favorites):
		m.gallery.SetFavoritesFilter(cycle(search.FavoritesFilters, params.FavoritesFilter))

	case key.Matches(msg, keys.ZoomIn):
		return m.setZoom(m.zoom + 1)
	case key.Matches(msg, keys.ZoomOut):
		return m.setZoom(m.zoom - 1)

	case key.Matches(msg, keys.Retry):
		return m, m.run("retry", m.gallery.RetryLastSearch)
	case key.Matches(msg, keys.Refresh):
		return m, m.run("refresh", m.gallery.Refresh)
	}

	return m, nil
}

// moveCursor moves the selection by delta and loads more photos once the last row is reached.
func (m Model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	n := len(m.snap.Photos)
	if n == 0 {
		return m, nil
	}

	m.cursor = max(0, min(n-1, m.cursor+delta))
	if m.cursor/m.zoom == (n-1)/m.zoom && m.snap.CanLoadMore() {
		return m, m.loadMore()
	}
	return m, nil
}

func (m Model) loadMore() tea.Cmd {
	if !m.snap.CanLoadMore() {
		return nil
	}
	return m.run("load_more", m.gallery.LoadMore)
}

func (m Model) setZoom(level int) (tea.Model, tea.Cmd) {
	level = prefs.ClampZoom(level)
	if level == m.zoom {
		return m, nil
	}

	m.zoom = level
	if m.zoomStore == nil {
		return m, nil
	}

	store, ctx := m.zoomStore, m.ctx
	return m, func() tea.Msg {
		_, err := store.SetZoom(ctx, level)
		return zoomSavedMsg{err: err}
	}
}

// run executes op off the update loop.
func (m Model) run(name string, op func(ctx context.Context) (search.Outcome, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		outcome, err := op(ctx)
		return opDoneMsg{op: name, outcome: outcome, err: err}
	}
}

// cycle returns the option after cur, wrapping around. Unknown values restart at the first option.
func cycle[T comparable](options []T, cur T) T {
	for i, opt := range options {
		if opt == cur {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}
