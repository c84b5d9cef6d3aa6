package fmp

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"stockmind/internal/fallback"
	"stockmind/internal/httpx"
	"stockmind/internal/normalize"
	"stockmind/internal/provider"
)

// CandidateName labels quotes and walk attempts served by FMP.
const CandidateName = "fmp"

// get performs a GET on path with extra query values and decodes the body.
func (c *FMPAPIClient) get(ctx context.Context, path string, extra url.Values) (any, error) {
	query := maps.Clone(c.query)
	maps.Copy(query, extra)

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
		// The key rides in the query string, so report the path only.
		return nil, &httpx.UpstreamHTTPError{Status: res.StatusCode, URL: c.baseURL + "/" + path}
	}

	var body any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", path, err)
	}
	return body, nil
}

// first unwraps the single-element arrays the quote and profile endpoints
// answer with.
func first(raw any) map[string]any {
	if arr, ok := raw.([]any); ok {
		if len(arr) == 0 {
			return nil
		}
		raw = arr[0]
	}
	m, _ := raw.(map[string]any)
	return m
}

// GetQuote retrieves the live quote record for sym.
func (c *FMPAPIClient) GetQuote(ctx context.Context, sym string) (map[string]any, error) {
	raw, err := c.get(ctx, "quote/"+url.PathEscape(sym), nil)
	if err != nil {
		return nil, err
	}
	return first(raw), nil
}

// GetProfile retrieves the company profile record for sym.
func (c *FMPAPIClient) GetProfile(ctx context.Context, sym string) (map[string]any, error) {
	raw, err := c.get(ctx, "profile/"+url.PathEscape(sym), nil)
	if err != nil {
		return nil, err
	}
	return first(raw), nil
}

// GetHistorical retrieves up to days daily closes, newest first.
func (c *FMPAPIClient) GetHistorical(ctx context.Context, sym string, days int) (any, error) {
	return c.get(ctx, "historical-price-full/"+url.PathEscape(sym), url.Values{
		"serietype":  []string{"line"},
		"timeseries": []string{strconv.Itoa(days)},
	})
}

// Quote fetches the quote and the profile concurrently and merges them, quote
// fields winning. One side failing does not cancel the other; the call only
// fails when both do.
func (c *FMPAPIClient) Quote(ctx context.Context, sym string) (provider.Quote, error) {
	var (
		g                 errgroup.Group
		quote, profile    map[string]any
		quoteErr, profErr error
	)
	g.Go(func() error {
		quote, quoteErr = c.GetQuote(ctx, sym)
		return nil
	})
	g.Go(func() error {
		profile, profErr = c.GetProfile(ctx, sym)
		return nil
	})
	_ = g.Wait()

	if quoteErr != nil && profErr != nil {
		return provider.Quote{}, fmt.Errorf("fmp quote %s: %w", sym, quoteErr)
	}

	merged := make(map[string]any, len(quote)+len(profile))
	maps.Copy(merged, profile)
	maps.Copy(merged, quote)

	q, err := normalize.InternationalQuote(merged, sym)
	if err != nil {
		return provider.Quote{}, fmt.Errorf("fmp quote %s: %w", sym, err)
	}
	q.Source = CandidateName
	return q, nil
}

// QuoteCandidate adapts Quote to the fallback chain.
func (c *FMPAPIClient) QuoteCandidate(sym string) fallback.Candidate[provider.Quote] {
	return fallback.Candidate[provider.Quote]{
		Name: CandidateName,
		Fetch: func(ctx context.Context) (provider.Quote, error) {
			return c.Quote(ctx, sym)
		},
	}
}

// HistoryCandidate adapts GetHistorical to the fallback chain.
func (c *FMPAPIClient) HistoryCandidate(sym string, days int) fallback.Candidate[provider.History] {
	return fallback.Candidate[provider.History]{
		Name: CandidateName,
		Fetch: func(ctx context.Context) (provider.History, error) {
			raw, err := c.GetHistorical(ctx, sym, days)
			if err != nil {
				return nil, err
			}
			return normalize.History(raw, days), nil
		},
	}
}
