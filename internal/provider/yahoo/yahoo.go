// Package yahoo reads the Yahoo Finance v8 chart and v1 search APIs.
package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"stockmind/internal/fallback"
	"stockmind/internal/httpx"
	"stockmind/internal/normalize"
	"stockmind/internal/provider"
)

const (
	DefaultPrimaryURL   = "https://query1.finance.yahoo.com"
	DefaultSecondaryURL = "https://query2.finance.yahoo.com"
	DefaultReferer      = "https://finance.yahoo.com/"
)

type Config struct {
	Name         string
	PrimaryURL   string
	SecondaryURL string
	Referer      string
}

type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "yahoo"
	}
	if cfg.PrimaryURL == "" {
		cfg.PrimaryURL = DefaultPrimaryURL
	}
	if cfg.SecondaryURL == "" {
		cfg.SecondaryURL = DefaultSecondaryURL
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// RangeFor picks the smallest chart range that covers days sessions.
func RangeFor(days int) string {
	switch {
	case days <= 7:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	}
	return "1y"
}

// QuoteCandidates tries the primary then the secondary mirror.
func (p *Provider) QuoteCandidates(sym string) []fallback.Candidate[provider.Quote] {
	return []fallback.Candidate[provider.Quote]{
		p.quoteCandidate("query1", p.cfg.PrimaryURL, sym),
		p.quoteCandidate("query2", p.cfg.SecondaryURL, sym),
	}
}

// PrimaryQuote is the single primary-mirror quote candidate.
func (p *Provider) PrimaryQuote(sym string) fallback.Candidate[provider.Quote] {
	return p.quoteCandidate("query1", p.cfg.PrimaryURL, sym)
}

// HistoryCandidates tries the primary then the secondary mirror.
func (p *Provider) HistoryCandidates(sym string, days int) []fallback.Candidate[provider.History] {
	return []fallback.Candidate[provider.History]{
		p.historyCandidate("query1", p.cfg.PrimaryURL, sym, days),
		p.historyCandidate("query2", p.cfg.SecondaryURL, sym, days),
	}
}

// PrimaryHistory is the single primary-mirror history candidate.
func (p *Provider) PrimaryHistory(sym string, days int) fallback.Candidate[provider.History] {
	return p.historyCandidate("query1", p.cfg.PrimaryURL, sym, days)
}

func (p *Provider) quoteCandidate(mirror, base, sym string) fallback.Candidate[provider.Quote] {
	name := p.cfg.Name + ":" + mirror
	return fallback.Candidate[provider.Quote]{
		Name: name,
		Fetch: func(ctx context.Context) (provider.Quote, error) {
			res, err := p.chart(ctx, base, sym, "1d")
			if err != nil {
				return provider.Quote{}, err
			}
			q, err := normalize.InternationalQuote(res["meta"], sym)
			if err != nil {
				return provider.Quote{}, fmt.Errorf("%s meta: %w", name, err)
			}
			q.Source = name
			return q, nil
		},
	}
}

func (p *Provider) historyCandidate(mirror, base, sym string, days int) fallback.Candidate[provider.History] {
	return fallback.Candidate[provider.History]{
		Name: p.cfg.Name + ":" + mirror,
		Fetch: func(ctx context.Context) (provider.History, error) {
			res, err := p.chart(ctx, base, sym, RangeFor(days))
			if err != nil {
				return nil, err
			}
			return normalize.History(ChartRecords(res), days), nil
		},
	}
}

// chart returns chart.result[0].
func (p *Provider) chart(ctx context.Context, base, sym, rng string) (map[string]any, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", rng)
	q.Set("includePrePost", "false")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", base, url.PathEscape(sym), q.Encode())

	raw, err := p.client.GetJSON(ctx, u, http.Header{"Referer": []string{p.cfg.Referer}})
	if err != nil {
		return nil, err
	}
	root, _ := raw.(map[string]any)
	chart, _ := root["chart"].(map[string]any)
	results, _ := chart["result"].([]any)
	if len(results) == 0 {
		if e, ok := chart["error"].(map[string]any); ok {
			return nil, fmt.Errorf("chart %s: %w: %v", sym, normalize.ErrNoData, e["description"])
		}
		return nil, fmt.Errorf("chart %s: %w", sym, normalize.ErrNoData)
	}
	res, ok := results[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("chart %s: %w", sym, normalize.ErrNoData)
	}
	return res, nil
}

// ChartRecords flattens a chart result's parallel timestamp and indicator
// arrays into per-day records the history normalizer understands. Dates are
// taken in UTC.
func ChartRecords(res map[string]any) []any {
	stamps, _ := res["timestamp"].([]any)
	ind, _ := res["indicators"].(map[string]any)
	quotes, _ := ind["quote"].([]any)
	var series map[string]any
	if len(quotes) > 0 {
		series, _ = quotes[0].(map[string]any)
	}
	at := func(key string, i int) any {
		arr, _ := series[key].([]any)
		if i < len(arr) {
			return arr[i]
		}
		return nil
	}

	out := make([]any, 0, len(stamps))
	for i, ts := range stamps {
		sec := int64(normalize.ToNumber(ts))
		if sec <= 0 {
			continue
		}
		out = append(out, map[string]any{
			"date":   time.Unix(sec, 0).UTC().Format(time.DateOnly),
			"close":  at("close", i),
			"open":   at("open", i),
			"high":   at("high", i),
			"low":    at("low", i),
			"volume": at("volume", i),
		})
	}
	return out
}

// Search queries the symbol search endpoint of the primary mirror.
func (p *Provider) Search(ctx context.Context, query string, limit int) ([]provider.Listing, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("quotesCount", strconv.Itoa(limit))
	q.Set("newsCount", "0")
	u := fmt.Sprintf("%s/v1/finance/search?%s", p.cfg.PrimaryURL, q.Encode())

	raw, err := p.client.GetJSON(ctx, u, http.Header{"Referer": []string{p.cfg.Referer}})
	if err != nil {
		return nil, err
	}
	root, _ := raw.(map[string]any)
	quotes, _ := root["quotes"].([]any)

	out := make([]provider.Listing, 0, len(quotes))
	for _, item := range quotes {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		sym, _ := rec["symbol"].(string)
		if sym == "" {
			continue
		}
		out = append(out, provider.Listing{
			Symbol: sym,
			Name:   searchRules.String(rec, "name", sym),
			Market: searchRules.String(rec, "market", ""),
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

var searchRules = normalize.Rules{
	{Name: "name", Keys: []string{"longname", "shortname"}},
	{Name: "market", Keys: []string{"exchDisp", "exchange"}},
}
