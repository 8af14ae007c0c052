package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultParametersBrowseEverything(t *testing.T) {
	p := DefaultParameters()
	require.Empty(t, p.Query)
	require.Equal(t, ModeHybrid, p.Mode)
	require.Equal(t, "date_desc", p.SortBy)
	require.Equal(t, "all", p.TypeFilter)
	require.Equal(t, SourceAll, p.SourceFilter)
	require.Equal(t, "all", p.FavoritesFilter)
	require.Empty(t, p.Tag)
	require.Empty(t, p.DateFrom)
	require.Empty(t, p.DateTo)
}

func TestSignatureChangesWithEveryField(t *testing.T) {
	base := DefaultParameters()
	mutations := map[string]func(*Parameters){
		"query":     func(p *Parameters) { p.Query = "sunset" },
		"mode":      func(p *Parameters) { p.Mode = ModeSemantic },
		"sort":      func(p *Parameters) { p.SortBy = "name_asc" },
		"type":      func(p *Parameters) { p.TypeFilter = "video" },
		"source":    func(p *Parameters) { p.SourceFilter = SourceCloud },
		"favorites": func(p *Parameters) { p.FavoritesFilter = "favorites" },
		"tag":       func(p *Parameters) { p.Tag = "beach" },
		"date_from": func(p *Parameters) { p.DateFrom = "2024-01-01" },
		"date_to":   func(p *Parameters) { p.DateTo = "2024-12-31" },
	}

	seen := map[string]string{base.Signature(): "base"}
	for name, mutate := range mutations {
		p := base
		mutate(&p)
		sig := p.Signature()
		prev, dup := seen[sig]
		require.Falsef(t, dup, "%s collides with %s", name, prev)
		seen[sig] = name
	}

	require.Equal(t, base.Signature(), DefaultParameters().Signature())
}

func TestSignatureQuotesSeparators(t *testing.T) {
	a := Parameters{Query: "cat|dog", Mode: ModeHybrid}
	b := Parameters{Query: "cat", Mode: Mode("dog|hybrid")}
	require.NotEqual(t, a.Signature(), b.Signature())

	c := Parameters{Tag: "", DateFrom: "x"}
	d := Parameters{Tag: "x", DateFrom: ""}
	require.NotEqual(t, c.Signature(), d.Signature())
}

func TestParametersRequest(t *testing.T) {
	p := DefaultParameters()
	p.Query = "sunset"
	p.Tag = "beach"
	p.SourceFilter = SourceLocal

	req := p.Request(50, 100)
	require.Equal(t, "sunset", req.Query)
	require.Equal(t, "hybrid", req.Mode)
	require.Equal(t, 50, req.Limit)
	require.Equal(t, 100, req.Offset)
	require.Equal(t, "beach", req.Tag)
	require.Equal(t, "local", req.SourceFilter)
	require.Empty(t, req.DateFrom)
}

func TestParseModeAndSource(t *testing.T) {
	m, err := ParseMode(" semantic ")
	require.NoError(t, err)
	require.Equal(t, ModeSemantic, m)

	_, err = ParseMode("fuzzy")
	require.Error(t, err)

	f, err := ParseSourceFilter("cloud")
	require.NoError(t, err)
	require.Equal(t, SourceCloud, f)

	_, err = ParseSourceFilter("tape")
	require.Error(t, err)
}

func TestStorePendingAndCommittedQuery(t *testing.T) {
	s := NewStore(DefaultParameters())
	s.SetPendingQuery("sun")
	require.Equal(t, "sun", s.PendingQuery())
	require.Empty(t, s.Query())

	s.CommitQuery("sunset")
	require.Equal(t, "sunset", s.Query())
	require.Equal(t, "sunset", s.PendingQuery())

	s.SetMode(ModeMetadata)
	s.SetDateRange("2024-01-01", "")
	snap := s.Snapshot()
	require.Equal(t, ModeMetadata, snap.Mode)
	require.Equal(t, "2024-01-01", snap.DateFrom)
	require.Empty(t, snap.DateTo)
}
