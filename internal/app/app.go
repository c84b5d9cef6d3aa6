// Package app assembles the upstream clients and services shared by the
// stockmind binaries.
package app

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"stockmind/internal/analysis"
	"stockmind/internal/config"
	"stockmind/internal/httpx"
	"stockmind/internal/market"
	"stockmind/internal/provider/fmp"
	"stockmind/internal/provider/naver"
	"stockmind/internal/provider/yahoo"
	"stockmind/internal/search"
)

type App struct {
	HTTP     *httpx.Client
	Naver    *naver.Provider
	Yahoo    *yahoo.Provider
	FMP      *fmp.FMPAPIClient
	Tickers  *search.Table
	Market   *market.Service
	Search   *search.Service
	Analysis *analysis.Service
}

// New wires every service from cfg. A rejected FMP key only disables that
// provider; an unreadable ticker table is fatal.
func New(cfg config.Config, lg zerolog.Logger) (*App, error) {
	a := &App{HTTP: UpstreamClient(cfg)}

	a.Naver = naver.New(naver.Config{
		MobileBaseURL: cfg.Naver.MobileBaseURL,
		APIBaseURL:    cfg.Naver.APIBaseURL,
		Referer:       cfg.Naver.Referer,
	}, a.HTTP)
	a.Yahoo = yahoo.New(yahoo.Config{
		PrimaryURL:   cfg.Yahoo.PrimaryURL,
		SecondaryURL: cfg.Yahoo.SecondaryURL,
		Referer:      cfg.Yahoo.Referer,
	}, a.HTTP)

	if cfg.FMP.Enabled {
		opts := []fmp.FMPAPIClientOption{
			fmp.WithHTTPClient(a.HTTP.HTTP),
			fmp.WithHeader(identity(a.HTTP)),
		}
		if cfg.FMP.BaseURL != "" {
			opts = append(opts, fmp.WithBaseURL(cfg.FMP.BaseURL))
		}
		c, err := fmp.NewFMPAPIClient(cfg.FMP.APIKey, opts...)
		if err != nil {
			lg.Warn().Err(err).Msg("fmp disabled")
		} else {
			a.FMP = c
		}
	}

	table, err := search.LoadTableFile(cfg.Search.TickersFile)
	if err != nil {
		return nil, fmt.Errorf("ticker table: %w", err)
	}
	a.Tickers = table

	a.Market = market.New(market.Config{
		AttemptTimeout:    cfg.AttemptTimeout(),
		SyntheticFallback: cfg.Naver.SyntheticFallback,
	}, a.Naver, a.Yahoo, a.FMP, lg)
	a.Search = search.New(search.Config{
		Limit:       cfg.Search.Limit,
		Passthrough: cfg.Search.Passthrough,
	}, table, a.Yahoo, lg)
	a.Analysis = analysis.New(analysis.Config{
		APIKey:    cfg.Anthropic.APIKey,
		BaseURL:   cfg.Anthropic.BaseURL,
		Model:     cfg.Anthropic.Model,
		Version:   cfg.Anthropic.Version,
		MaxTokens: cfg.Anthropic.MaxTokens,
	}, a.HTTP, lg)
	return a, nil
}

// identity is the browser identity of hc as request headers. Clients that
// bypass httpx.Client.Do carry it explicitly.
func identity(hc *httpx.Client) http.Header {
	h := http.Header{}
	if hc.UserAgent != "" {
		h.Set("User-Agent", hc.UserAgent)
	}
	if v := hc.Headers["Accept-Language"]; v != "" {
		h.Set("Accept-Language", v)
	}
	return h
}

// UpstreamClient is the browser-like client every scraper shares.
func UpstreamClient(cfg config.Config) *httpx.Client {
	hc := httpx.New(cfg.UpstreamTimeout())
	if cfg.Upstream.UserAgent != "" {
		hc.UserAgent = cfg.Upstream.UserAgent
	}
	if cfg.Upstream.AcceptLanguage != "" {
		hc.Headers["Accept-Language"] = cfg.Upstream.AcceptLanguage
	}
	return hc
}
