package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"stockmind/internal/app"
	"stockmind/internal/config"
	"stockmind/internal/logger"
	"stockmind/internal/market"
	"stockmind/internal/symbol"
)

type result struct {
	Query  string `json:"query"`
	Symbol string `json:"symbol"`
	OK     bool   `json:"ok"`
	Data   any    `json:"data,omitempty"`
	Source string `json:"source,omitempty"`
	Error  string `json:"error,omitempty"`
}

func main() {
	var (
		symbolsCSV  string
		action      string
		days        int
		timeout     int
		concurrency int
		configPath  string
	)
	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "005930.KS,AAPL"), "comma-separated symbols or company names")
	flag.StringVar(&action, "action", "quote", "quote or history")
	flag.IntVar(&days, "days", market.DefaultDays, "history length in trading days")
	flag.IntVar(&timeout, "timeout", 30, "overall timeout seconds")
	flag.IntVar(&concurrency, "concurrency", 4, "symbols fetched in parallel")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	lg := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: true, Output: os.Stderr})

	if action != "quote" && action != "history" {
		lg.Fatal().Str("action", action).Msg("action must be quote or history")
	}
	queries := splitCSV(symbolsCSV)
	if len(queries) == 0 {
		lg.Fatal().Msg("no symbols provided")
	}

	a, err := app.New(cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("startup")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	results := make([]result, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, q := range queries {
		g.Go(func() error {
			r := fetch(gctx, a, action, q, days)
			results[i] = r
			if r.OK {
				lg.Info().Str("symbol", r.Symbol).Str("source", r.Source).Msg("fetched")
			} else {
				lg.Warn().Str("symbol", r.Symbol).Str("error", r.Error).Msg("fetch failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	b, _ := json.MarshalIndent(struct {
		Results []result `json:"results"`
	}{results}, "", "  ")
	fmt.Println(string(b))

	for _, r := range results {
		if !r.OK {
			os.Exit(1)
		}
	}
}

func fetch(ctx context.Context, a *app.App, action, query string, days int) result {
	sym := a.Search.Resolve(query)
	cls := symbol.Classify(sym)
	r := result{Query: query, Symbol: cls.Symbol}

	switch action {
	case "history":
		h, source, err := a.Market.History(ctx, cls, days)
		if err != nil {
			r.Error = err.Error()
			return r
		}
		r.OK, r.Data, r.Source = true, h, source
	default:
		q, err := a.Market.Quote(ctx, cls)
		if err != nil {
			r.Error = err.Error()
			return r
		}
		r.OK, r.Data = true, q
	}
	return r
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
