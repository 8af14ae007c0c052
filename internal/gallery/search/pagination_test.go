package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPagerLifecycle(t *testing.T) {
	p := NewPager(50)
	require.Equal(t, 0, p.Offset())
	require.False(t, p.HasMore())
	require.Equal(t, PageFresh, p.State())

	p.Start()
	require.Equal(t, 0, p.Offset())
	require.True(t, p.HasMore())

	p.ApplyFirstPage(50, true)
	require.Equal(t, 50, p.Offset())
	require.True(t, p.HasMore())
	require.Equal(t, PagePaging, p.State())

	p.Advance(50)
	require.Equal(t, 100, p.Offset())
	require.True(t, p.HasMore())

	p.Advance(12)
	require.Equal(t, 112, p.Offset())
	require.False(t, p.HasMore())

	p.Start()
	require.Equal(t, 0, p.Offset())
	require.True(t, p.HasMore())
	require.Equal(t, PageFresh, p.State())
}

func TestPagerFailKeepsOffset(t *testing.T) {
	p := NewPager(50)
	p.Start()
	p.ApplyFirstPage(50, true)
	p.Fail()

	require.Equal(t, 50, p.Offset())
	require.False(t, p.HasMore())
}

func TestPagerDefaultsPageSize(t *testing.T) {
	require.Equal(t, DefaultPageSize, NewPager(0).PageSize())
	require.Equal(t, 10, NewPager(10).PageSize())
}
