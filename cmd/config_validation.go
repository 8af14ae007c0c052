package cmd

import (
	"fmt"
	"math"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"

	"github.com/Laisky/laisky-gallery-search/internal/gallery/search"
)

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// validateStartupConfig validates startup configuration from the shared config source.
// It returns an error when any configured value is malformed or violates constraints.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.S.Get(key)
	})
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
// It accepts a value getter and returns nil when all configured values are valid.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateGalleryAPIConfig(get, &validationErrs)
	validateGallerySearchConfig(get, &validationErrs)
	validateGalleryPrefsConfig(get, &validationErrs)
	validateIndexConfig(get, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

// validateGalleryAPIConfig validates the search endpoint connection settings.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateGalleryAPIConfig(get configGetter, errs *[]string) {
	validateOptionalURL(get, "settings.gallery.api.base_url", errs)
	validateOptionalIntMin(get, "settings.gallery.api.timeout_ms", 1, errs)
}

// validateGallerySearchConfig validates debounce, paging, cache and default parameters.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateGallerySearchConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.gallery.search.debounce_ms", 1, errs)
	validateOptionalIntMin(get, "settings.gallery.search.page_size", 1, errs)
	validateOptionalIntMin(get, "settings.gallery.search.cache_ttl_sec", 1, errs)
	validateOptionalIntMin(get, "settings.gallery.search.cache_capacity", 1, errs)

	modes := make([]string, 0, len(search.Modes))
	for _, m := range search.Modes {
		modes = append(modes, string(m))
	}
	validateOptionalStringIn(get, "settings.gallery.search.default_mode", modes, errs)
	validateOptionalStringIn(get, "settings.gallery.search.default_sort", search.SortOptions, errs)
}

// validateGalleryPrefsConfig validates where view preferences are stored.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateGalleryPrefsConfig(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "settings.gallery.prefs.db_path", errs)
}

// validateIndexConfig validates the development photo index settings.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateIndexConfig(get configGetter, errs *[]string) {
	validateOptionalListenAddr(get, "settings.index.listen", errs)
	validateOptionalIntMin(get, "settings.index.latency_ms", 0, errs)
	validateOptionalIntMin(get, "settings.index.rate_per_sec", 0, errs)
	validateOptionalIntMin(get, "settings.index.burst", 1, errs)

	raw := get("settings.index.photos_dir")
	if raw == nil {
		return
	}
	if _, err := parseStrictString(raw); err != nil {
		appendValidationError(errs, "settings.index.photos_dir must be a string path")
	}
}

// validateOptionalIntMin validates an optionally configured integer key with a minimum constraint.
// It accepts a getter, the key, a minimum value, and an error collector pointer and appends validation errors.
func validateOptionalIntMin(get configGetter, key string, min int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalURL validates an optionally configured absolute URL key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalURL(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string URL", key)
		return
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		appendValidationError(errs, "%s must not be empty", key)
		return
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		appendValidationError(errs, "%s must be a valid absolute URL", key)
	}
}

// validateOptionalStringNonEmpty validates an optionally configured non-empty string key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalStringNonEmpty(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	if strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must not be empty", key)
	}
}

// validateOptionalStringIn validates an optionally configured enum key.
// It accepts a getter, the key, the allowed values, and an error collector pointer.
func validateOptionalStringIn(get configGetter, key string, allowed []string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil || !slices.Contains(allowed, strings.TrimSpace(value)) {
		appendValidationError(errs, "%s must be one of %s", key, strings.Join(allowed, ", "))
	}
}

// validateOptionalListenAddr validates an optionally configured host:port listen address.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalListenAddr(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string address", key)
		return
	}

	host, port, err := net.SplitHostPort(strings.TrimSpace(value))
	if err != nil || !isValidHost(host) {
		appendValidationError(errs, "%s must look like host:port", key)
		return
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > math.MaxUint16 {
		appendValidationError(errs, "%s has an invalid port", key)
	}
}

// parseStrictInt parses a value as a strict integer.
// It accepts a raw value and returns the parsed int and an error when parsing fails.
func parseStrictInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty integer string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, errors.Wrap(err, "atoi")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

// parseStrictString parses a value as a strict string.
// It accepts a raw value and returns the parsed string and an error when parsing fails.
func parseStrictString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Errorf("unsupported string type %T", value)
	}
}

// isValidHost validates a host string without scheme or path components.
// An empty host means every interface.
func isValidHost(host string) bool {
	trimmed := strings.TrimSpace(host)
	return !strings.Contains(trimmed, "://") && !strings.Contains(trimmed, "/")
}

// appendValidationError appends a formatted validation error to the collector.
// It accepts an error slice pointer, a format string, and format arguments, and has no return value.
func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}
