// Package naver fetches domestic quotes and daily bars from the Naver Finance
// mobile and chart APIs.
package naver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"stockmind/internal/fallback"
	"stockmind/internal/httpx"
	"stockmind/internal/normalize"
	"stockmind/internal/provider"
	"stockmind/internal/symbol"
)

const (
	DefaultMobileBaseURL = "https://m.stock.naver.com/api/stock"
	DefaultAPIBaseURL    = "https://api.stock.naver.com/chart/domestic/day"
	DefaultReferer       = "https://finance.naver.com/"
)

// maxCandles is the largest count the candle endpoint honours.
const maxCandles = 100

// Config controls the Naver provider. Empty fields take the defaults.
type Config struct {
	Name          string
	MobileBaseURL string
	APIBaseURL    string
	Referer       string
}

// Provider builds domestic candidates. It holds no mutable state.
type Provider struct {
	cfg    Config
	client *httpx.Client
	now    func() time.Time
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "naver"
	}
	if cfg.MobileBaseURL == "" {
		cfg.MobileBaseURL = DefaultMobileBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	return &Provider{cfg: cfg, client: hc, now: time.Now}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) header() http.Header {
	return http.Header{"Referer": []string{p.cfg.Referer}}
}

func (p *Provider) get(ctx context.Context, u string) (any, error) {
	return p.client.GetJSON(ctx, u, p.header())
}

// QuoteCandidates returns the domestic quote endpoints in priority order.
func (p *Provider) QuoteCandidates(cls symbol.Classification) []fallback.Candidate[provider.Quote] {
	code := url.PathEscape(cls.NativeCode)
	return []fallback.Candidate[provider.Quote]{
		{
			Name: p.cfg.Name + ":basic",
			Fetch: func(ctx context.Context) (provider.Quote, error) {
				raw, err := p.get(ctx, fmt.Sprintf("%s/%s/basic", p.cfg.MobileBaseURL, code))
				if err != nil {
					return provider.Quote{}, err
				}
				return p.quote(raw, cls, "basic")
			},
		},
		{
			Name: p.cfg.Name + ":price",
			Fetch: func(ctx context.Context) (provider.Quote, error) {
				raw, err := p.get(ctx, fmt.Sprintf("%s/%s/price", p.cfg.MobileBaseURL, code))
				if err != nil {
					return provider.Quote{}, err
				}
				// The price endpoint answers either a single object or a
				// newest-first list of daily records.
				if list, ok := raw.([]any); ok {
					if len(list) == 0 {
						return provider.Quote{}, normalize.ErrNoData
					}
					raw = list[0]
				}
				return p.quote(raw, cls, "price")
			},
		},
	}
}

func (p *Provider) quote(raw any, cls symbol.Classification, endpoint string) (provider.Quote, error) {
	q, err := normalize.DomesticQuote(raw, cls)
	if err != nil {
		return provider.Quote{}, fmt.Errorf("%s %s: %w", p.cfg.Name, endpoint, err)
	}
	q.Source = p.cfg.Name + ":" + endpoint
	return q, nil
}

// HistoryCandidates returns the domestic daily-bar endpoints in priority order.
func (p *Provider) HistoryCandidates(cls symbol.Classification, days int) []fallback.Candidate[provider.History] {
	code := url.PathEscape(cls.NativeCode)
	return []fallback.Candidate[provider.History]{
		{
			Name: p.cfg.Name + ":candle",
			Fetch: func(ctx context.Context) (provider.History, error) {
				count := min(days+10, maxCandles)
				return p.history(ctx, fmt.Sprintf("%s/%s/candle/day?count=%d", p.cfg.MobileBaseURL, code, count), days)
			},
		},
		{
			Name: p.cfg.Name + ":chart",
			Fetch: func(ctx context.Context) (provider.History, error) {
				return p.history(ctx, p.chartURL(code, days), days)
			},
		},
		{
			Name: p.cfg.Name + ":prices",
			Fetch: func(ctx context.Context) (provider.History, error) {
				return p.history(ctx, fmt.Sprintf("%s/%s/price?pageSize=%d&page=1", p.cfg.MobileBaseURL, code, days), days)
			},
		},
	}
}

// chartURL asks for a calendar window wide enough to hold days trading
// sessions.
func (p *Provider) chartURL(code string, days int) string {
	end := p.now()
	start := end.AddDate(0, 0, -(days*7/5 + 14))
	q := url.Values{}
	q.Set("startDateTime", start.Format("20060102")+"000000")
	q.Set("endDateTime", end.Format("20060102")+"235959")
	return fmt.Sprintf("%s/%s?%s", p.cfg.APIBaseURL, code, q.Encode())
}

func (p *Provider) history(ctx context.Context, u string, days int) (provider.History, error) {
	raw, err := p.get(ctx, u)
	if err != nil {
		return nil, err
	}
	return normalize.History(raw, days), nil
}
