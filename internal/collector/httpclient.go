package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const maxErrorBody = 256

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithProxy routes requests through an HTTP proxy. Invalid URLs are ignored.
func WithProxy(proxyURL string) ClientOption {
	return func(c *HTTPClient) { c.proxyURL = proxyURL }
}

// WithRateLimit allows rps requests per second with the given burst.
// Calls over the limit fail fast with ErrRateLimited.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *HTTPClient) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHeader sets a header on every request.
func WithHeader(key, value string) ClientOption {
	return func(c *HTTPClient) {
		if value != "" {
			c.headers[key] = value
		}
	}
}

// HTTPClient is the shared transport of all providers.
type HTTPClient struct {
	name     string
	timeout  time.Duration
	proxyURL string
	headers  map[string]string
	limiter  *rate.Limiter
	client   *http.Client
}

// NewHTTPClient creates a client for one provider. The default timeout is 10s.
func NewHTTPClient(name string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		name:    name,
		timeout: 10 * time.Second,
		headers: map[string]string{},
	}
	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if c.proxyURL != "" {
		if u, err := url.Parse(c.proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	c.client = &http.Client{Timeout: c.timeout, Transport: transport}
	return c
}

// Name returns the provider name the client was created for.
func (c *HTTPClient) Name() string { return c.name }

// Timeout returns the per-request timeout.
func (c *HTTPClient) Timeout() time.Duration { return c.timeout }

// GetJSON issues a GET request and decodes a 2xx JSON body into dest.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, query url.Values, dest any) error {
	if c.limiter != nil && !c.limiter.Allow() {
		return fmt.Errorf("%s: %w", c.name, ErrRateLimited)
	}

	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request: %w", c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", c.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return fmt.Errorf("%s: status %d: %s", c.name, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%s: decode: %w: %v", c.name, ErrBadPayload, err)
	}
	return nil
}
