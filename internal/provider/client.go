package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

const (
	// MaxResponseSize is the maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// UserAgent is the user agent string for provider requests
	UserAgent = "posting-sync/1.0"

	// DefaultSearchPath is appended to the base URL for keyword searches
	DefaultSearchPath = "/search"

	// DefaultKeywordParam is the query parameter that carries the keyword
	DefaultKeywordParam = "keyword"
)

// Client performs a single keyword search against the provider
type Client interface {
	Search(ctx context.Context, keyword string) ([]Posting, error)
}

// HTTPClient is the Client for the provider's JSON search API
type HTTPClient struct {
	httpClient   *http.Client
	baseURL      string
	searchPath   string
	keywordParam string
	apiKey       string
	fields       FieldPaths
	limiter      *rate.Limiter
}

// ClientOption configures an HTTPClient
type ClientOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) {
		h.httpClient = c
	}
}

// WithSearchPath overrides DefaultSearchPath
func WithSearchPath(path string) ClientOption {
	return func(h *HTTPClient) {
		if path != "" {
			h.searchPath = path
		}
	}
}

// WithKeywordParam overrides DefaultKeywordParam
func WithKeywordParam(param string) ClientOption {
	return func(h *HTTPClient) {
		if param != "" {
			h.keywordParam = param
		}
	}
}

// WithAPIKey sends key as a bearer token
func WithAPIKey(key string) ClientOption {
	return func(h *HTTPClient) {
		h.apiKey = key
	}
}

// WithFieldPaths overrides the gjson paths. Empty paths keep their defaults.
func WithFieldPaths(paths FieldPaths) ClientOption {
	return func(h *HTTPClient) {
		h.fields = paths.merge(DefaultFieldPaths())
	}
}

// WithRateLimit limits outbound requests to rps per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64) ClientOption {
	return func(h *HTTPClient) {
		if rps <= 0 {
			h.limiter = nil
			return
		}
		h.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewHTTPClient creates a client for the provider rooted at baseURL
func NewHTTPClient(baseURL string, opts ...ClientOption) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid provider base URL %q", baseURL)
	}

	c := &HTTPClient{
		httpClient:   &http.Client{},
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		searchPath:   DefaultSearchPath,
		keywordParam: DefaultKeywordParam,
		fields:       DefaultFieldPaths(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search implements Client
func (c *HTTPClient) Search(ctx context.Context, keyword string) ([]Posting, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// The wait would overrun the attempt deadline; the next attempt may fit
			return nil, &TransientFailure{Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	requestURL := c.searchURL(keyword)
	body, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	return parsePostings(body, keyword, c.fields)
}

func (c *HTTPClient) searchURL(keyword string) string {
	q := url.Values{}
	q.Set(c.keywordParam, keyword)
	return c.baseURL + c.searchPath + "?" + q.Encode()
}

func (c *HTTPClient) get(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, requestURL, resp.Status)
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("%w: response size %d bytes exceeds maximum of %d bytes",
			ErrMalformedResponse, resp.ContentLength, MaxResponseSize)
	}

	// +1 to detect an oversized body without Content-Length
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("%w: response exceeds maximum of %d bytes", ErrMalformedResponse, MaxResponseSize)
	}

	return body, nil
}

// parsePostings extracts postings from a search response. Items without an
// external id are skipped, and repeated ids keep their first occurrence.
func parsePostings(body []byte, keyword string, f FieldPaths) ([]Posting, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformedResponse)
	}

	results := gjson.GetBytes(body, f.Results)
	if !results.Exists() {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedResponse, f.Results)
	}
	if !results.IsArray() {
		return nil, fmt.Errorf("%w: %q is not an array", ErrMalformedResponse, f.Results)
	}

	items := results.Array()
	postings := make([]Posting, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	skipped := 0

	for _, item := range items {
		id := item.Get(f.ExternalID).String()
		if id == "" {
			skipped++
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		postings = append(postings, Posting{
			ExternalID: id,
			Keyword:    keyword,
			CompanyID:  item.Get(f.CompanyID).String(),
			Title:      item.Get(f.Title).String(),
			URL:        item.Get(f.URL).String(),
			LocationID: item.Get(f.LocationID).String(),
			ValidFrom:  parseTime(item.Get(f.ValidFrom)),
			ValidUntil: parseTime(item.Get(f.ValidUntil)),
		})
	}

	if skipped > 0 {
		slog.Warn("Skipped provider items without an external id", "keyword", keyword, "count", skipped)
	}

	return postings, nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", time.DateOnly}

// parseTime accepts RFC 3339 timestamps, zone-less timestamps (read as UTC) and plain dates
func parseTime(v gjson.Result) *time.Time {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	if v.Type == gjson.Number {
		t := time.Unix(v.Int(), 0).UTC()
		return &t
	}
	s := v.String()
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
