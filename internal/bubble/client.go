// Package bubble is a client for the Bubble Data API: token-authenticated,
// cursor-paginated reads of application tables (events, issues, messages,
// venues, training records, users, teams).
package bubble

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

// maxPageSize is the hard cap Bubble imposes on the limit parameter.
const maxPageSize = 100

// Client talks to a Bubble application's Data API.
type Client struct {
	baseURL  string
	token    string
	pageSize int
	hc       *http.Client
	log      *zap.Logger

	// retry controls; overridable in tests
	maxAttempts int
	minBackoff  time.Duration
	maxBackoff  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithLogger attaches a logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithPageSize sets the records-per-page limit (capped at 100).
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= maxPageSize {
			c.pageSize = n
		}
	}
}

// WithRetry tunes the retry policy for transient failures.
func WithRetry(attempts int, min, max time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = attempts
		c.minBackoff = min
		c.maxBackoff = max
	}
}

// NewClient creates a Data API client. baseURL points at the object
// endpoint root, e.g. https://app.example.com/api/1.1/obj.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		token:       token,
		pageSize:    maxPageSize,
		hc:          &http.Client{Timeout: 30 * time.Second},
		log:         zap.NewNop(),
		maxAttempts: 4,
		minBackoff:  500 * time.Millisecond,
		maxBackoff:  8 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Page is one cursor window of results.
type Page struct {
	Records   []Record
	Cursor    int
	Count     int
	Remaining int
}

// envelope mirrors the Data API response shape.
type envelope struct {
	Response struct {
		Results   []Record `json:"results"`
		Cursor    int      `json:"cursor"`
		Count     int      `json:"count"`
		Remaining int      `json:"remaining"`
	} `json:"response"`
}

// apiError mirrors the Data API error body.
type apiError struct {
	Body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"body"`
}

// List fetches a single page of records from table starting at cursor.
func (c *Client) List(ctx context.Context, table string, cursor int) (*Page, error) {
	q := url.Values{}
	q.Set("cursor", strconv.Itoa(cursor))
	q.Set("limit", strconv.Itoa(c.pageSize))
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(table), q.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("list %s at cursor %d: %w", table, cursor, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", table, err)
	}

	return &Page{
		Records:   env.Response.Results,
		Cursor:    env.Response.Cursor,
		Count:     env.Response.Count,
		Remaining: env.Response.Remaining,
	}, nil
}

// FetchAll walks the cursor until the table is exhausted. An empty
// results page terminates the walk even if the API still reports
// remaining records, so a misbehaving endpoint cannot loop forever.
func (c *Client) FetchAll(ctx context.Context, table string) ([]Record, error) {
	var all []Record
	cursor := 0
	for {
		page, err := c.List(ctx, table, cursor)
		if err != nil {
			return nil, err
		}
		if len(page.Records) == 0 {
			break
		}
		all = append(all, page.Records...)
		c.log.Debug("fetched page",
			zap.String("table", table),
			zap.Int("cursor", cursor),
			zap.Int("count", len(page.Records)),
			zap.Int("remaining", page.Remaining))
		if page.Remaining <= 0 {
			break
		}
		cursor += len(page.Records)
	}
	c.log.Info("fetched table", zap.String("table", table), zap.Int("records", len(all)))
	return all, nil
}

// FetchSample walks the cursor like FetchAll but stops once max
// records have been pulled, so callers sampling a large table do not
// pay for the whole walk. The result is truncated to max.
func (c *Client) FetchSample(ctx context.Context, table string, max int) ([]Record, error) {
	if max <= 0 {
		return nil, nil
	}
	var all []Record
	cursor := 0
	for len(all) < max {
		page, err := c.List(ctx, table, cursor)
		if err != nil {
			return nil, err
		}
		if len(page.Records) == 0 {
			break
		}
		all = append(all, page.Records...)
		if page.Remaining <= 0 {
			break
		}
		cursor += len(page.Records)
	}
	if len(all) > max {
		all = all[:max]
	}
	c.log.Debug("fetched sample", zap.String("table", table), zap.Int("records", len(all)))
	return all, nil
}

// get performs an authenticated GET with retry on transient failures.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	b := &backoff.Backoff{
		Min:    c.minBackoff,
		Max:    c.maxBackoff,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retryable, err := c.getOnce(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		c.log.Warn("retrying request", zap.String("url", endpoint), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) getOnce(ctx context.Context, endpoint string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return raw, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("status %d: %s", resp.StatusCode, apiMessage(raw))
	default:
		return nil, false, fmt.Errorf("status %d: %s", resp.StatusCode, apiMessage(raw))
	}
}

// apiMessage extracts the API error message, falling back to the raw body.
func apiMessage(raw []byte) string {
	var e apiError
	if err := json.Unmarshal(raw, &e); err == nil && e.Body.Message != "" {
		return e.Body.Message
	}
	const limit = 200
	if len(raw) > limit {
		raw = raw[:limit]
	}
	return string(raw)
}
