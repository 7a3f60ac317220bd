package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultTimeout bounds one upstream request.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 1024
	userAgent    = "Mozilla/5.0 (compatible; RiskSentinel/1.0)"
)

// ErrEmptyPayload is returned when a provider answers 200 with no usable data.
var ErrEmptyPayload = errors.New("empty payload")

// ErrMissingAPIKey is returned by fetchers that need a key nobody configured.
var ErrMissingAPIKey = errors.New("missing api key")

// HTTPError is a non-200 response. Body is truncated to 1 KiB.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d, body: %s", e.StatusCode, e.Body)
}

// NewHTTPClient builds an http.Client that honours an optional proxy.
func NewHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Client performs GETs for all fetchers and records each call in Health.
type Client struct {
	HTTP    *http.Client
	Health  *Health
	Headers map[string]string
}

// NewClient wraps hc. A nil health tracker disables recording.
func NewClient(hc *http.Client, health *Health) *Client {
	if hc == nil {
		hc = NewHTTPClient("", DefaultTimeout)
	}
	return &Client{HTTP: hc, Health: health}
}

// Get fetches rawURL and returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, source, rawURL string, headers map[string]string) ([]byte, error) {
	start := time.Now()
	body, err := c.get(ctx, rawURL, headers)
	if c.Health != nil {
		c.Health.Record(source, rawURL, time.Since(start), err)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return body, nil
}

// GetJSON fetches rawURL and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, source, rawURL string, headers map[string]string, v any) error {
	body, err := c.Get(ctx, source, rawURL, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s decode: %w", source, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9")
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return nil, ErrEmptyPayload
	}
	return body, nil
}
