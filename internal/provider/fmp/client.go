package fmp

import (
	"errors"
	"net/http"
	"net/url"
)

const baseURL = "https://financialmodelingprep.com/api/v3"

// ErrMissingKey is returned when the client is built without an API key.
var ErrMissingKey = errors.New("fmp: missing api key")

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=fmp_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// FMPAPIClient is a client for the Financial Modeling Prep v3 API.
type FMPAPIClient struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query carries the apikey parameter.
	query url.Values
}

// FMPAPIClientOption is a configuration option for the FMP API client.
type FMPAPIClientOption func(*FMPAPIClient)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) FMPAPIClientOption {
	return func(c *FMPAPIClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) FMPAPIClientOption {
	return func(c *FMPAPIClient) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) FMPAPIClientOption {
	return func(c *FMPAPIClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewFMPAPIClient creates a new FMP API client. The key comes from
// configuration only; an empty key is an error.
func NewFMPAPIClient(key string, options ...FMPAPIClientOption) (*FMPAPIClient, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	var client = &FMPAPIClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{"Accept": []string{"application/json"}},
		query:      url.Values{},
	}
	client.query.Set("apikey", key)
	for _, option := range options {
		option(client)
	}
	return client, nil
}
