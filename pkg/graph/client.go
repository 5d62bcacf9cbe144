// Package graph is a minimal client for the Microsoft Graph REST API, scoped
// to the calendar, online-meeting and transcript surfaces that meeting sync
// needs. It implements the meetingsync provider interfaces.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

// Default client settings.
const (
	DefaultBaseURL        = "https://graph.microsoft.com/v1.0"
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryAfter     = 2 * time.Second
	maxRetryAfter         = 30 * time.Second
)

// Client calls the Graph API with token auth and throttle-aware retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     logging.Logger
	maxRetries int
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Tokens     TokenSource
	HTTPClient *http.Client
	Logger     logging.Logger
	MaxRetries int
}

// NewClient creates a Graph API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("%w: token source is required", errors.ErrValidation)
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRequestTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     cfg.Tokens,
		logger:     logger.With(logging.F("component", "graph_client")),
		maxRetries: maxRetries,
	}, nil
}

// getJSON performs an authenticated GET and decodes the JSON response into
// out. The url may be a path relative to the base URL or an absolute next-page
// link returned by the API.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	body, err := c.get(ctx, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// get performs an authenticated GET with retry on throttling.
func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	if !strings.HasPrefix(url, "http") {
		url = c.baseURL + url
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body, retryAfter, err := c.doOnce(ctx, url, accept)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !errors.IsRateLimited(err) || attempt == c.maxRetries {
			return nil, err
		}

		c.logger.Warn("request throttled, backing off",
			logging.F("url", url),
			logging.F("retry_after", retryAfter),
			logging.F("attempt", attempt+1))

		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// doOnce performs one request attempt. On throttling it returns the server's
// suggested backoff alongside errors.ErrRateLimited.
func (c *Client) doOnce(ctx context.Context, url, accept string) ([]byte, time.Duration, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to acquire token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", accept)
	// Pin event timestamps to UTC so they parse without zone lookup.
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), fmt.Errorf("%w: %s", errors.ErrRateLimited, apiErrorMessage(body))
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, 0, fmt.Errorf("%w: %s", errors.ErrUnauthorized, apiErrorMessage(body))
	case resp.StatusCode == http.StatusForbidden:
		return nil, 0, fmt.Errorf("%w: %s", errors.ErrForbidden, apiErrorMessage(body))
	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, errors.ErrNotFound
	default:
		return nil, 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, apiErrorMessage(body))
	}
}

// parseRetryAfter reads a Retry-After header in seconds, bounded to keep a
// misbehaving server from stalling the pass.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return DefaultRetryAfter
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds <= 0 {
		return DefaultRetryAfter
	}
	d := time.Duration(seconds) * time.Second
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

// apiError is the API's error envelope.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// apiErrorMessage extracts a readable message from an error response body.
func apiErrorMessage(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		if e.Error.Code != "" {
			return e.Error.Code + ": " + e.Error.Message
		}
		return e.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// escapeODataString doubles single quotes for embedding in a filter literal.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
