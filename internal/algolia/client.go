package algolia

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hn-frontpage/internal/model"
)

const (
	DefaultBaseURL     = "https://hn.algolia.com/api/v1"
	DefaultTags        = "front_page"
	DefaultHitsPerPage = 100
	DefaultTimeout     = 10 * time.Second

	// maxBodyBytes bounds how much of a response we are willing to read.
	maxBodyBytes = 8 << 20
)

// Client fetches front-page stories from the Hacker News search API.
// Docs: https://hn.algolia.com/api
type Client struct {
	baseURL     string
	tags        string
	hitsPerPage int
	client      *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client = &http.Client{Timeout: d}
		}
	}
}

// WithQuery overrides the fixed tag filter and batch size.
func WithQuery(tags string, hitsPerPage int) Option {
	return func(c *Client) {
		if strings.TrimSpace(tags) != "" {
			c.tags = strings.TrimSpace(tags)
		}
		if hitsPerPage > 0 {
			c.hitsPerPage = hitsPerPage
		}
	}
}

// NewClient creates a search API client. baseAPI should be something like
// "https://hn.algolia.com/api/v1". If empty, it defaults to that endpoint.
func NewClient(baseAPI string, opts ...Option) *Client {
	if strings.TrimSpace(baseAPI) == "" {
		baseAPI = DefaultBaseURL
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseAPI, "/"),
		tags:        DefaultTags,
		hitsPerPage: DefaultHitsPerPage,
		client:      &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tags reports the tag filter sent with every request.
func (c *Client) Tags() string { return c.tags }

// HitsPerPage reports the batch size sent with every request.
func (c *Client) HitsPerPage() int { return c.hitsPerPage }

// Fetch performs exactly one GET against the search endpoint and maps the
// returned hits into stories, preserving their order. Every failure is a
// *FetchError.
func (c *Client) Fetch(ctx context.Context) ([]model.Story, error) {
	q := url.Values{
		"tags":        {c.tags},
		"hitsPerPage": {strconv.Itoa(c.hitsPerPage)},
	}
	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &FetchError{Kind: KindHTTPStatus, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: err}
	}
	stories, err := decodeStories(body)
	if err != nil {
		return nil, err
	}
	slog.Info("algolia: fetched stories", "tags", c.tags, "count", len(stories), "elapsed", time.Since(start))
	return stories, nil
}
