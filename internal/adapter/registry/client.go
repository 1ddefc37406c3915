// Package registry looks up ISINs at the Czech central securities depository
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/janskylukas/bond-service/internal/domain"
)

const (
	DefaultBaseURL   = "https://www.cdcp.cz/isbpublicjson/api"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements domain.ISINRegistry against the depository's public JSON API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.SugaredLogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new depository registry client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// issuedISINsResponse is the body of the VydaneISINy endpoint
type issuedISINsResponse struct {
	IssuedISINs []json.RawMessage `json:"vydaneisiny"`
}

// Exists reports whether the depository lists the ISIN as issued
// A 4xx response or an empty list means unknown; transport failures and 5xx responses are errors
func (c *Client) Exists(ctx context.Context, isin string) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/VydaneISINy?isin=%s", c.baseURL, url.QueryEscape(isin))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Errorw("ISIN registry request failed", "isin", isin, "elapsed", elapsed, "error", err)
		return false, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debugw("ISIN registry request", "isin", isin, "status", resp.StatusCode, "elapsed", elapsed)

	if resp.StatusCode >= http.StatusInternalServerError {
		return false, fmt.Errorf("ISIN registry error: status %d for %s", resp.StatusCode, isin)
	}
	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var body issuedISINsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return len(body.IssuedISINs) > 0, nil
}

// Offline accepts every ISIN that passes the local check digit test
type Offline struct{}

// Exists reports whether the ISIN is well formed
func (Offline) Exists(_ context.Context, isin string) (bool, error) {
	return domain.ValidateISIN(isin) == nil, nil
}
