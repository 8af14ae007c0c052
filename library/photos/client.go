package photos

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	errors "github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/google/uuid"

	appLog "github.com/Laisky/laisky-gallery-search/library/log"
)

const (
	defaultHTTPTimeout = 20 * time.Second
	// logBodyLimit caps the number of response bytes logged for debugging.
	logBodyLimit = 4096
	searchPath   = "/api/search"
	// RequestIDHeader carries a unique id per outgoing search.
	RequestIDHeader = "X-Request-Id"
)

// HTTPError is returned when the endpoint answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("search endpoint returned %d: %s", e.StatusCode, e.Body)
}

// ClientOption customises a Client during construction.
type ClientOption func(*Client) error

// WithTimeout sets the timeout of the default http client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout <= 0 {
			return errors.Errorf("timeout must be positive, got %s", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

// WithHTTPClient replaces the http client, mostly for tests.
func WithHTTPClient(httpcli *http.Client) ClientOption {
	return func(c *Client) error {
		if httpcli == nil {
			return errors.New("http client cannot be nil")
		}
		c.httpcli = httpcli
		return nil
	}
}

// WithLogger overrides the client logger.
func WithLogger(logger logSDK.Logger) ClientOption {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// Client calls the photo search endpoint.
type Client struct {
	endpoint string
	timeout  time.Duration
	httpcli  *http.Client
	logger   logSDK.Logger
}

// NewClient builds a client for the endpoint rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse base url `%s`", baseURL)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.Errorf("base url must be absolute: `%s`", baseURL)
	}

	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + searchPath,
		timeout:  defaultHTTPTimeout,
		logger:   appLog.Logger.Named("photos_client"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.Wrap(err, "apply client option")
		}
	}

	if c.httpcli == nil {
		if c.httpcli, err = gutils.NewHTTPClient(
			gutils.WithHTTPClientTimeout(c.timeout),
		); err != nil {
			return nil, errors.Wrap(err, "new http client")
		}
	}

	return c, nil
}

// Search fetches one page of photos. Cancelling ctx aborts the underlying request.
func (c *Client) Search(ctx context.Context, sreq SearchRequest) (*SearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request to `%s`", c.endpoint)
	}
	req.URL.RawQuery = encodeQuery(sreq).Encode()

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	logger := c.logger.With(zap.String("request_id", requestID))
	logger.Debug("outgoing http request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
	)

	startAt := time.Now()
	resp, err := c.httpcli.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer gutils.CloseWithLog(resp.Body, logger)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	truncatedBody, truncated := truncateForLog(body, logBodyLimit)
	logger.Debug("incoming http response",
		zap.Int("status", resp.StatusCode),
		zap.String("body", truncatedBody),
		zap.Bool("body_truncated", truncated),
		zap.Duration("cost", time.Since(startAt)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errors.WithStack(&HTTPError{StatusCode: resp.StatusCode, Body: truncatedBody})
	}

	out := new(SearchResponse)
	if err := gutils.JSON.UnmarshalFromString(string(body), out); err != nil {
		return nil, errors.Wrap(err, "failed to decode search response")
	}
	if out.Results == nil {
		out.Results = []Photo{}
	}

	return out, nil
}

// encodeQuery maps a SearchRequest onto the endpoint query string.
func encodeQuery(sreq SearchRequest) url.Values {
	limit := sreq.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("query", sreq.Query)
	params.Set("mode", sreq.Mode)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(sreq.Offset))
	params.Set("sort_by", sreq.SortBy)
	params.Set("type", sreq.TypeFilter)
	params.Set("favorites", sreq.FavoritesFilter)
	params.Set("source", sreq.SourceFilter)
	if sreq.Tag != "" {
		params.Set("tag", sreq.Tag)
	}
	if sreq.DateFrom != "" {
		params.Set("date_from", sreq.DateFrom)
	}
	if sreq.DateTo != "" {
		params.Set("date_to", sreq.DateTo)
	}

	return params
}

// DecodeQuery is the inverse of the client encoding, used by servers of the endpoint.
func DecodeQuery(values url.Values) SearchRequest {
	sreq := SearchRequest{
		Query:           values.Get("query"),
		Mode:            values.Get("mode"),
		SortBy:          values.Get("sort_by"),
		TypeFilter:      values.Get("type"),
		FavoritesFilter: values.Get("favorites"),
		SourceFilter:    values.Get("source"),
		Tag:             values.Get("tag"),
		DateFrom:        values.Get("date_from"),
		DateTo:          values.Get("date_to"),
		Limit:           DefaultLimit,
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 {
		sreq.Limit = limit
	}
	if offset, err := strconv.Atoi(values.Get("offset")); err == nil && offset > 0 {
		sreq.Offset = offset
	}

	return sreq
}

// truncateForLog shortens body to at most limit bytes, reporting whether it was cut.
func truncateForLog(body []byte, limit int) (string, bool) {
	if len(body) <= limit {
		return string(body), false
	}
	return string(body[:limit]), true
}
