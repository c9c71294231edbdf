package fhir

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// contentType is the FHIR JSON media type.
	contentType = "application/fhir+json"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 4 << 10
)

// Client performs FHIR REST reads against one server.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *RateLimiter
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	limiter    *RateLimiter
}

// WithHTTPClient sets the underlying HTTP client. When client credentials
// are configured it is used for token requests and wrapped for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

// WithRateLimiter replaces the limiter built from settings.
func WithRateLimiter(l *RateLimiter) Option {
	return func(o *clientOptions) {
		o.limiter = l
	}
}

// NewClient creates a client for the server in cfg.
// ctx is used for OAuth2 token requests for the client's lifetime.
func NewClient(ctx context.Context, cfg domain.FHIRSettings, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: FHIR base URL is required", domain.ErrInvalidInput)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid FHIR base URL %q", domain.ErrInvalidInput, cfg.BaseURL)
	}

	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}

	if cfg.ClientID != "" {
		if cfg.TokenURL == "" {
			return nil, fmt.Errorf("%w: token URL is required with a client ID", domain.ErrInvalidInput)
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		timeout := hc.Timeout
		hc = cc.Client(context.WithValue(ctx, oauth2.HTTPClient, hc))
		hc.Timeout = timeout
		logger.Debug("fhir: using client credentials for %s", cfg.ClientID)
	}

	limiter := o.limiter
	if limiter == nil {
		limiter = NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}

	return &Client{
		base:    base,
		http:    hc,
		limiter: limiter,
	}, nil
}

// BaseURL returns the server root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// searchURL builds the search URL for a resource type.
func (c *Client) searchURL(resourceType string, params url.Values) string {
	u := c.base.JoinPath(resourceType)
	u.RawQuery = params.Encode()
	return u.String()
}

// checkLink rejects paging links that point at another server.
func (c *Client) checkLink(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if u.Host != "" && (u.Scheme != c.base.Scheme || u.Host != c.base.Host) {
		return fmt.Errorf("%w: %s", ErrForeignLink, u.Host)
	}
	return nil
}

// search fetches one Bundle page from rawURL.
func (c *Client) search(ctx context.Context, rawURL string) (*Bundle, error) {
	var b Bundle
	if err := c.get(ctx, rawURL, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", contentType)
	req.Header.Set("X-Request-ID", reqID)

	logger.Debug("fhir: GET %s (request %s)", rawURL, reqID)
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.limiter.RecordRateLimitError(parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp, rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrFetchFailed, err)
	}
	return nil
}

func (c *Client) apiError(resp *http.Response, rawURL string) error {
	msg := http.StatusText(resp.StatusCode)
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var outcome OperationOutcome
	if json.Unmarshal(body, &outcome) == nil && outcome.ResourceType == resourceOperationOutcome {
		if m := outcome.Message(); m != "" {
			msg = m
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg, URL: rawURL}
}
