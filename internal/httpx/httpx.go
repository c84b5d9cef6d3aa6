// Package httpx performs the outbound upstream calls.
package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Browser-like defaults. Some upstreams reject requests without them.
const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAccept         = "application/json, text/plain, */*"
	DefaultAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8"
)

// maxBody caps how much of an upstream body is read.
const maxBody = 8 << 20

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=httpx_test -destination=mock_http_client_test.go -source=httpx.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// UpstreamHTTPError is returned for any non-2xx upstream answer.
type UpstreamHTTPError struct {
	Status int
	URL    string
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("upstream %s: status %d", e.URL, e.Status)
}

// Client is a small wrapper around an HTTP client with browser defaults.
// It never retries; demotion is the caller's decision.
type Client struct {
	HTTP      HTTPClient
	UserAgent string
	Headers   map[string]string
}

func New(timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout, Transport: transport},
		UserAgent: DefaultUserAgent,
		Headers: map[string]string{
			"Accept":          DefaultAccept,
			"Accept-Language": DefaultAcceptLanguage,
		},
	}
}

// Do fills in the default headers the request does not already set.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return c.HTTP.Do(req)
}

// GetJSON issues a GET and decodes the body into a generic value.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.doJSON(ctx, req, header)
}

// PostJSON encodes body as JSON, POSTs it and decodes the reply.
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, body any) (any, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(ctx, req, header)
}

func (c *Client) doJSON(ctx context.Context, req *http.Request, header http.Header) (any, error) {
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	res, err := c.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
		return nil, &UpstreamHTTPError{Status: res.StatusCode, URL: req.URL.String()}
	}

	var out any
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBody)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", req.URL.Path, err)
	}
	return out, nil
}
