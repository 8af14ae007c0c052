package photos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	errors "github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
)

func TestClientSearchEncodesRequest(t *testing.T) {
	var got url.Values
	var requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, searchPath, r.URL.Path)
		got = r.URL.Query()
		requestID = r.Header.Get(RequestIDHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"path":"/a.jpg","filename":"a.jpg","metadata":{"tags":["beach"],"favorite":true},"match_explanation":"tag beach"}],"count":7}`))
	}))
	defer srv.Close()

	cli, err := NewClient(srv.URL + "/")
	require.NoError(t, err)

	resp, err := cli.Search(context.Background(), SearchRequest{
		Query:           "sunset",
		Mode:            "semantic",
		Limit:           50,
		Offset:          100,
		SortBy:          "date_desc",
		TypeFilter:      "photo",
		FavoritesFilter: "favorites",
		SourceFilter:    "cloud",
		Tag:             "beach",
		DateFrom:        "2024-01-01",
	})
	require.NoError(t, err)

	require.Equal(t, "sunset", got.Get("query"))
	require.Equal(t, "semantic", got.Get("mode"))
	require.Equal(t, "50", got.Get("limit"))
	require.Equal(t, "100", got.Get("offset"))
	require.Equal(t, "photo", got.Get("type"))
	require.Equal(t, "favorites", got.Get("favorites"))
	require.Equal(t, "cloud", got.Get("source"))
	require.Equal(t, "beach", got.Get("tag"))
	require.Equal(t, "2024-01-01", got.Get("date_from"))
	require.False(t, got.Has("date_to"))
	require.NotEmpty(t, requestID)

	require.Len(t, resp.Results, 1)
	require.Equal(t, "/a.jpg", resp.Results[0].Path)
	require.True(t, resp.Results[0].Metadata.Favorite)
	require.Equal(t, "tag beach", resp.Results[0].MatchExplanation)
	require.NotNil(t, resp.Count)
	require.Equal(t, 7, *resp.Count)
}

func TestClientSearchEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cli, err := NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := cli.Search(context.Background(), SearchRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp.Results)
	require.Empty(t, resp.Results)
	require.Nil(t, resp.Count)
}

func TestClientSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cli, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = cli.Search(context.Background(), SearchRequest{Query: "x"})
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	require.Contains(t, httpErr.Body, "index unavailable")
}

func TestClientSearchCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cli, err := NewClient(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = cli.Search(ctx, SearchRequest{Query: "slow"})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient("photos.local/api")
	require.Error(t, err)

	_, err = NewClient("http://photos.local", WithTimeout(0))
	require.Error(t, err)
}

func TestDecodeQueryRoundTrip(t *testing.T) {
	in := SearchRequest{
		Query:           "cat",
		Mode:            "hybrid",
		Limit:           50,
		Offset:          50,
		SortBy:          "name_asc",
		TypeFilter:      "all",
		FavoritesFilter: "all",
		SourceFilter:    "local",
		DateTo:          "2024-12-31",
	}
	require.Equal(t, in, DecodeQuery(encodeQuery(in)))

	out := DecodeQuery(url.Values{"limit": {"-1"}, "offset": {"abc"}})
	require.Equal(t, DefaultLimit, out.Limit)
	require.Zero(t, out.Offset)
}
