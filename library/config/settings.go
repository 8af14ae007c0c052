package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	gconfig "github.com/Laisky/go-config/v2"
)

const (
	defaultAPIBaseURL    = "http://localhost:8080"
	defaultAPITimeoutMS  = 20000
	defaultDebounceMS    = 300
	defaultPageSize      = 50
	defaultCacheTTLSec   = 300
	defaultCacheCapacity = 50
	defaultMode          = "hybrid"
	defaultSort          = "date_desc"
	defaultIndexListen   = "localhost:8080"
	prefsDirName         = "laisky-gallery-search"
	prefsFileName        = "prefs.db"
)

// Settings is the typed view of the gallery configuration.
type Settings struct {
	API    APISettings
	Search SearchSettings
	Prefs  PrefsSettings
	Index  IndexSettings
}

// APISettings configures the remote photo search endpoint.
type APISettings struct {
	BaseURL string
	Timeout time.Duration
}

// SearchSettings configures the search controller.
type SearchSettings struct {
	Debounce      time.Duration
	PageSize      int
	CacheTTL      time.Duration
	CacheCapacity int
	DefaultMode   string
	DefaultSort   string
}

// PrefsSettings configures where user preferences are persisted.
type PrefsSettings struct {
	DBPath string
}

// IndexSettings configures the development photo index server.
type IndexSettings struct {
	Listen    string
	PhotosDir string
	Latency   time.Duration
	// RatePerSec limits searches per client ip, 0 disables throttling.
	RatePerSec int
	Burst      int
}

// LoadSettings reads gallery settings from the shared config with defaults.
func LoadSettings() Settings {
	return loadSettings(func(key string) any {
		return gconfig.S.Get(key)
	})
}

func loadSettings(get func(key string) any) Settings {
	st := Settings{
		API: APISettings{
			BaseURL: stringFromConfig(get, "settings.gallery.api.base_url", defaultAPIBaseURL),
			Timeout: time.Duration(positiveIntFromConfig(get, "settings.gallery.api.timeout_ms", defaultAPITimeoutMS)) * time.Millisecond,
		},
		Search: SearchSettings{
			Debounce:      time.Duration(positiveIntFromConfig(get, "settings.gallery.search.debounce_ms", defaultDebounceMS)) * time.Millisecond,
			PageSize:      positiveIntFromConfig(get, "settings.gallery.search.page_size", defaultPageSize),
			CacheTTL:      time.Duration(positiveIntFromConfig(get, "settings.gallery.search.cache_ttl_sec", defaultCacheTTLSec)) * time.Second,
			CacheCapacity: positiveIntFromConfig(get, "settings.gallery.search.cache_capacity", defaultCacheCapacity),
			DefaultMode:   stringFromConfig(get, "settings.gallery.search.default_mode", defaultMode),
			DefaultSort:   stringFromConfig(get, "settings.gallery.search.default_sort", defaultSort),
		},
		Prefs: PrefsSettings{
			DBPath: stringFromConfig(get, "settings.gallery.prefs.db_path", defaultPrefsPath()),
		},
		Index: IndexSettings{
			Listen:    stringFromConfig(get, "settings.index.listen", defaultIndexListen),
			PhotosDir: stringFromConfig(get, "settings.index.photos_dir", ""),
			Latency:   time.Duration(intFromConfig(get, "settings.index.latency_ms", 0)) * time.Millisecond,
		},
	}

	st.Index.RatePerSec = max(0, intFromConfig(get, "settings.index.rate_per_sec", 0))
	st.Index.Burst = max(st.Index.RatePerSec, intFromConfig(get, "settings.index.burst", 2*st.Index.RatePerSec))
	return st
}

// defaultPrefsPath falls back to the working directory when no user config dir exists.
func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return prefsFileName
	}
	return filepath.Join(dir, prefsDirName, prefsFileName)
}

// intFromConfig reads an integer from config with fallback.
func intFromConfig(get func(string) any, key string, def int) int {
	switch typed := get(key).(type) {
	case nil:
		return def
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	default:
		return def
	}
}

// positiveIntFromConfig is intFromConfig that also rejects values <= 0.
func positiveIntFromConfig(get func(string) any, key string, def int) int {
	v := intFromConfig(get, key, def)
	if v <= 0 {
		return def
	}
	return v
}

// stringFromConfig reads a string from config with fallback.
func stringFromConfig(get func(string) any, key string, def string) string {
	typed, ok := get(key).(string)
	if !ok {
		return def
	}
	trimmed := strings.TrimSpace(typed)
	if trimmed == "" {
		return def
	}
	return trimmed
}
