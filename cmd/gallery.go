package cmd

import (
	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-gallery-search/internal/gallery/search"
	"github.com/Laisky/laisky-gallery-search/library/config"
	"github.com/Laisky/laisky-gallery-search/library/log"
	"github.com/Laisky/laisky-gallery-search/library/photos"
)

// newPhotosClient builds the search endpoint client from settings.
func newPhotosClient(st config.Settings) (*photos.Client, error) {
	cli, err := photos.NewClient(st.API.BaseURL,
		photos.WithTimeout(st.API.Timeout),
		photos.WithLogger(log.Logger.Named("photos_client")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "new photos client")
	}

	return cli, nil
}

// initialParameters applies the configured default mode and sort to the default parameters.
func initialParameters(st config.Settings) (search.Parameters, error) {
	params := search.DefaultParameters()
	mode, err := search.ParseMode(st.Search.DefaultMode)
	if err != nil {
		return params, errors.Wrap(err, "default mode")
	}
	params.Mode = mode
	params.SortBy = st.Search.DefaultSort

	return params, nil
}

// newSearchController wires a controller from settings, extra options are applied last.
func newSearchController(st config.Settings, searcher search.Searcher, opts ...search.Option) (*search.Controller, error) {
	params, err := initialParameters(st)
	if err != nil {
		return nil, err
	}

	base := []search.Option{
		search.WithPageSize(st.Search.PageSize),
		search.WithDebounce(st.Search.Debounce),
		search.WithCacheTTL(st.Search.CacheTTL),
		search.WithCacheCapacity(st.Search.CacheCapacity),
		search.WithInitialParameters(params),
	}

	ctrl, err := search.New(searcher, append(base, opts...)...)
	if err != nil {
		return nil, errors.Wrap(err, "new search controller")
	}

	return ctrl, nil
}
