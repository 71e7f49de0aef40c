package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"webframeworks/logger"

	gh "github.com/google/go-github/v82/github"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public REST API endpoint.
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout bounds a single request when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	userAgent    = "webframeworks-readme-generator (+https://github.com)"
	acceptHeader = "application/vnd.github.v3+json"
)

// ErrFetch is returned for every failed fetch: transport error, non-2xx status or undecodable body.
var ErrFetch = errors.New("fetch failed")

// Client performs authenticated GET requests against the repository API
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    *url.URL
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// NewClient creates a client for baseURL. An empty token is sent as-is.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger.Debug("Initializing GitHub client",
		zap.String("base_url", u.String()),
		zap.Duration("timeout", timeout),
		zap.Bool("authenticated", token != ""))

	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: u,
	}, nil
}

// GetJSON issues one GET to rawURL and decodes the JSON body into v.
// Any failure is reported as ErrFetch.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrFetch, err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("token %s", c.token))
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	logger.Debug("Fetching", zap.String("url", rawURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrFetch, rawURL, err)
	}
	defer resp.Body.Close()

	if err := gh.CheckResponse(resp); err != nil {
		return fmt.Errorf("%w: GET %s: status code %d: %w", ErrFetch, rawURL, resp.StatusCode, err)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: GET %s: failed to decode response: %v", ErrFetch, rawURL, err)
	}

	return nil
}
