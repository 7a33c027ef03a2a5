package prompthub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

// Client talks to the prompt-management service REST API.
type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	log     *zap.Logger

	maxAttempts int
	minBackoff  time.Duration
	maxBackoff  time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// WithRetry tunes the retry policy.
func WithRetry(attempts int, min, max time.Duration) ClientOption {
	return func(c *Client) {
		c.maxAttempts = attempts
		c.minBackoff = min
		c.maxBackoff = max
	}
}

// NewClient creates a prompt service client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		hc:          &http.Client{Timeout: 30 * time.Second},
		log:         zap.NewNop(),
		maxAttempts: 3,
		minBackoff:  500 * time.Millisecond,
		maxBackoff:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RemoteTemplate is the service's view of a template.
type RemoteTemplate struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Model       string   `json:"model,omitempty"`
	Text        string   `json:"text"`
	ContentHash string   `json:"content_hash"`
	Version     int      `json:"version,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

// pushRequest is the body of a push call.
type pushRequest struct {
	Template RemoteTemplate `json:"template"`
	Message  string         `json:"message,omitempty"`
}

// List returns every template the service knows.
func (c *Client) List(ctx context.Context) ([]RemoteTemplate, error) {
	var out struct {
		Templates []RemoteTemplate `json:"templates"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/prompts", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return out.Templates, nil
}

// Get fetches one template by name; nil when the service has none.
func (c *Client) Get(ctx context.Context, name string) (*RemoteTemplate, error) {
	var out RemoteTemplate
	err := c.do(ctx, http.MethodGet, "/api/prompts/"+url.PathEscape(name), nil, &out)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch template %q: %w", name, err)
	}
	return &out, nil
}

// Push uploads a template with a commit message and returns the new
// version reported by the service.
func (c *Client) Push(ctx context.Context, t Template, message string) (int, error) {
	req := pushRequest{
		Template: RemoteTemplate{
			Name:        t.Name,
			Description: t.Description,
			Tags:        t.Tags,
			Model:       t.Model,
			Text:        t.Text,
			ContentHash: t.Hash(),
		},
		Message: message,
	}

	var out struct {
		Version int `json:"version"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/prompts/"+url.PathEscape(t.Name), req, &out); err != nil {
		return 0, fmt.Errorf("failed to push template %q: %w", t.Name, err)
	}
	return out.Version, nil
}

// PushResult summarizes one template's outcome in a bulk push.
type PushResult struct {
	Name    string
	Skipped bool
	Version int
}

// PushAll pushes every changed template: templates whose content hash
// matches the remote copy are skipped. Push order follows the input.
func (c *Client) PushAll(ctx context.Context, templates []Template, message string) ([]PushResult, error) {
	remote, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	remoteHash := make(map[string]string, len(remote))
	for _, r := range remote {
		remoteHash[r.Name] = r.ContentHash
	}

	var results []PushResult
	for _, t := range templates {
		if remoteHash[t.Name] == t.Hash() {
			c.log.Debug("template unchanged", zap.String("name", t.Name))
			results = append(results, PushResult{Name: t.Name, Skipped: true})
			continue
		}
		version, err := c.Push(ctx, t, message)
		if err != nil {
			return results, err
		}
		c.log.Info("pushed template", zap.String("name", t.Name), zap.Int("version", version))
		results = append(results, PushResult{Name: t.Name, Version: version})
	}
	return results, nil
}

// notFoundError marks a 404 so Get can map it to nil.
type notFoundError struct{ msg string }

func (e *notFoundError) Error() string { return e.msg }

func isNotFound(err error) bool {
	_, ok := err.(*notFoundError)
	return ok
}

// do runs one JSON request with retry on transient failures.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	b := &backoff.Backoff{Min: c.minBackoff, Max: c.maxBackoff, Factor: 2, Jitter: true}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		retryable, err := c.doOnce(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
		c.log.Warn("retrying request", zap.String("path", path), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return fmt.Errorf("giving up after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body []byte, out interface{}) (retryable bool, err error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		if out != nil && len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				return false, fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return false, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, &notFoundError{msg: fmt.Sprintf("status 404: %s", string(raw))}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	default:
		return false, fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}
}
