package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s := loadSettings(func(string) any { return nil })

	require.Equal(t, defaultAPIBaseURL, s.API.BaseURL)
	require.Equal(t, 20*time.Second, s.API.Timeout)
	require.Equal(t, 300*time.Millisecond, s.Search.Debounce)
	require.Equal(t, 50, s.Search.PageSize)
	require.Equal(t, 5*time.Minute, s.Search.CacheTTL)
	require.Equal(t, 50, s.Search.CacheCapacity)
	require.Equal(t, "hybrid", s.Search.DefaultMode)
	require.Equal(t, "date_desc", s.Search.DefaultSort)
	require.NotEmpty(t, s.Prefs.DBPath)
	require.Equal(t, time.Duration(0), s.Index.Latency)
	require.Zero(t, s.Index.RatePerSec)
}

func TestLoadSettingsOverrides(t *testing.T) {
	values := map[string]any{
		"settings.gallery.api.base_url":         " https://photos.example.com ",
		"settings.gallery.search.debounce_ms":   150,
		"settings.gallery.search.page_size":     int64(20),
		"settings.gallery.search.cache_ttl_sec": float64(60),
		"settings.gallery.search.default_mode":  "semantic",
		"settings.index.latency_ms":             250,
		"settings.index.photos_dir":             "/srv/photos",
		"settings.index.rate_per_sec":           5,
	}
	s := loadSettings(func(key string) any { return values[key] })

	require.Equal(t, "https://photos.example.com", s.API.BaseURL)
	require.Equal(t, 150*time.Millisecond, s.Search.Debounce)
	require.Equal(t, 20, s.Search.PageSize)
	require.Equal(t, time.Minute, s.Search.CacheTTL)
	require.Equal(t, "semantic", s.Search.DefaultMode)
	require.Equal(t, 250*time.Millisecond, s.Index.Latency)
	require.Equal(t, "/srv/photos", s.Index.PhotosDir)
	require.Equal(t, 5, s.Index.RatePerSec)
	require.Equal(t, 10, s.Index.Burst)
}

func TestLoadSettingsRejectsNonPositive(t *testing.T) {
	values := map[string]any{
		"settings.gallery.search.page_size":      0,
		"settings.gallery.search.cache_capacity": -3,
		"settings.gallery.search.debounce_ms":    "fast",
	}
	s := loadSettings(func(key string) any { return values[key] })

	require.Equal(t, defaultPageSize, s.Search.PageSize)
	require.Equal(t, defaultCacheCapacity, s.Search.CacheCapacity)
	require.Equal(t, 300*time.Millisecond, s.Search.Debounce)
}

func TestLoadFromFileMissingIsNotAnError(t *testing.T) {
	require.NoError(t, LoadFromFile(""))
	require.NoError(t, LoadFromFile(t.TempDir()+"/missing.yml"))
}
