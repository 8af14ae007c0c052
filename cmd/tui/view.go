package tui

import (
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/Laisky/laisky-gallery-search/internal/gallery/search"
	"github.com/Laisky/laisky-gallery-search/library/photos"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	// cellHeight is two text lines plus the border
	cellHeight = 4
	// chromeHeight is everything around the grid
	chromeHeight = 10
)

// View renders the gallery
func (m Model) View() string {
	if m.quitting {
		return GetSubtitleStyle().Render("Goodbye! 👋\n")
	}

	sections := []string{
		m.renderHeader(),
		m.renderInput(),
	}
	if banner := m.renderError(); banner != "" {
		sections = append(sections, banner)
	}
	sections = append(sections, m.renderBody(), m.renderStatusBar())
	if m.notice != "" {
		sections = append(sections, GetSubtitleStyle().Render(m.notice))
	}
	sections = append(sections, m.renderHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	p := m.gallery.Parameters()
	filters := fmt.Sprintf("mode: %s  sort: %s  type: %s  source: %s  favorites: %s  columns: %d",
		p.Mode, p.SortBy, p.TypeFilter, p.SourceFilter, p.FavoritesFilter, m.zoom)
	if p.Tag != "" {
		filters += "  tag: " + p.Tag
	}
	if p.DateFrom != "" || p.DateTo != "" {
		filters += fmt.Sprintf("  dates: %s..%s", p.DateFrom, p.DateTo)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		GetHeaderStyle().Render("📷 Gallery"),
		GetSubtitleStyle().Render(filters),
	)
}

func (m Model) renderInput() string {
	return GetInputLabelStyle().Render("Search: ") + m.input.View()
}

// renderError is the banner of the current search error, empty when there is none.
func (m Model) renderError() string {
	if m.snap.Err == nil {
		return ""
	}

	title := "Search failed"
	var serr *search.SearchError
	if errors.As(m.snap.Err, &serr) && serr.LoadMore {
		title = "Could not load more photos"
	}

	return GetErrorBannerStyle().Render(fmt.Sprintf("❌ %s: %s\nr retry • ctrl+r refresh • esc dismiss",
		title, m.snap.Err.Error()))
}

func (m Model) renderBody() string {
	switch {
	case m.snap.Loading && len(m.snap.Photos) == 0:
		return m.spinner.View() + " Searching..."
	case m.snap.Empty():
		if m.snap.Params.Query == "" {
			return GetSubtitleStyle().Render("No photos in this view. Try other filters.")
		}
		return GetSubtitleStyle().Render(fmt.Sprintf("No photos match %q. Try another query or mode.",
			m.snap.Params.Query))
	case !m.snap.Searched:
		return GetSubtitleStyle().Render("Press / and type to search your photos.")
	}

	return m.renderGrid()
}

func (m Model) renderGrid() string {
	width, height := m.width, m.height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	cols := m.zoom
	// two columns of border per cell
	inner := max(8, width/cols-4)
	visibleRows := max(1, (height-chromeHeight)/cellHeight)
	cursorRow := m.cursor / cols
	firstRow := max(0, cursorRow-visibleRows+1)

	var rows []string
	for r := firstRow; r < firstRow+visibleRows; r++ {
		start := r * cols
		if start >= len(m.snap.Photos) {
			break
		}
		end := min(start+cols, len(m.snap.Photos))

		cells := make([]string, 0, cols)
		for i := start; i < end; i++ {
			cells = append(cells, renderCell(m.snap.Photos[i], inner, i == m.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCell(p photos.Photo, width int, selected bool) string {
	meta := p.Metadata.DateTaken
	if len(meta) > 10 {
		meta = meta[:10]
	}
	if p.MatchExplanation != "" {
		meta = p.MatchExplanation
	}
	if p.Metadata.Favorite {
		meta = "★ " + meta
	}

	body := truncate(p.Filename, width) + "\n" + GetCellMetaStyle().Render(truncate(meta, width))
	return GetCellStyle(selected).Width(width).Render(body)
}

func (m Model) renderStatusBar() string {
	var parts []string
	if m.snap.Searched && len(m.snap.Photos) > 0 {
		total := len(m.snap.Photos)
		if m.snap.ResultCount != nil {
			total = *m.snap.ResultCount
		}
		parts = append(parts, fmt.Sprintf("%d of %d photos", len(m.snap.Photos), total))
	}
	if m.snap.Loading && len(m.snap.Photos) > 0 {
		parts = append(parts, m.spinner.View()+" loading more")
	} else if m.snap.CanLoadMore() {
		parts = append(parts, "n: load more")
	}
	if m.typing && m.input.Value() != m.gallery.Parameters().Query {
		parts = append(parts, "typing...")
	}
	if len(parts) == 0 {
		return ""
	}

	return GetStatusBarStyle().Render(strings.Join(parts, " • "))
}

func (m Model) renderHelp() string {
	if m.typing {
		return GetHelpStyle().Render("enter: search now • esc: done")
	}

	bindings := []string{}
	for _, b := range []struct{ k, desc string }{
		{keys.Focus.Help().Key, keys.Focus.Help().Desc},
		{keys.Mode.Help().Key, keys.Mode.Help().Desc},
		{keys.Sort.Help().Key, keys.Sort.Help().Desc},
		{keys.Type.Help().Key, keys.Type.Help().Desc},
		{keys.Source.Help().Key, keys.Source.Help().Desc},
		{keys.Favorites.Help().Key, keys.Favorites.Help().Desc},
		{"+/-", "columns"},
		{keys.LoadMore.Help().Key, keys.LoadMore.Help().Desc},
		{keys.Refresh.Help().Key, keys.Refresh.Help().Desc},
		{keys.Quit.Help().Key, keys.Quit.Help().Desc},
	} {
		bindings = append(bindings, b.k+": "+b.desc)
	}

	return GetHelpStyle().Render(strings.Join(bindings, " • "))
}

// truncate cuts s to at most width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
