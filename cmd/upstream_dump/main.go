package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"stockmind/internal/app"
	"stockmind/internal/config"
	"stockmind/internal/fallback"
	"stockmind/internal/logger"
	"stockmind/internal/market"
	"stockmind/internal/normalize"
	"stockmind/internal/provider"
	"stockmind/internal/symbol"
)

// probe is the outcome of a single candidate, tried on its own.
type probe struct {
	Candidate string `json:"candidate"`
	OK        bool   `json:"ok"`
	Empty     bool   `json:"empty,omitempty"`
	Duration  string `json:"duration"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
}

func main() {
	var (
		sym        string
		days       int
		timeoutSec int
		cfgPath    string
		outPath    string
	)
	flag.StringVar(&sym, "symbol", "005930.KS", "symbol or company name to probe")
	flag.IntVar(&days, "days", 5, "history length for history candidates")
	flag.IntVar(&timeoutSec, "timeout", 20, "per-candidate timeout seconds")
	flag.StringVar(&cfgPath, "config", "", "path to config.json (optional)")
	flag.StringVar(&outPath, "out", "", "output JSON file path (stdout when empty)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	lg := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: true, Output: os.Stderr})

	a, err := app.New(cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("startup")
	}
	cls := symbol.Classify(a.Search.Resolve(sym))
	days = market.ClampDays(days)
	timeout := time.Duration(timeoutSec) * time.Second

	qc := a.Market.QuoteCandidates(cls)
	hc := a.Market.HistoryCandidates(cls, days)
	quotes := make([]probe, len(qc))
	history := make([]probe, len(hc))

	var g errgroup.Group
	for i, c := range qc {
		g.Go(func() error {
			quotes[i] = run(c, timeout, normalize.EmptyQuote)
			return nil
		})
	}
	for i, c := range hc {
		g.Go(func() error {
			history[i] = run(c, timeout, func(h provider.History) bool { return len(h) == 0 })
			return nil
		})
	}
	_ = g.Wait()

	out := struct {
		Symbol  string  `json:"symbol"`
		Family  string  `json:"family"`
		Quote   []probe `json:"quote"`
		History []probe `json:"history"`
	}{cls.Symbol, cls.Family.String(), quotes, history}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		lg.Fatal().Err(err).Msg("encode")
	}
	if outPath == "" {
		fmt.Println(string(b))
		return
	}
	if err := os.WriteFile(outPath, b, 0o644); err != nil {
		lg.Fatal().Err(err).Msg("write")
	}
	lg.Info().Str("out", outPath).Msg("done")
}

func run[T any](c fallback.Candidate[T], timeout time.Duration, empty func(T) bool) probe {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	v, err := c.Fetch(ctx)
	p := probe{Candidate: c.Name, Duration: time.Since(start).Round(time.Millisecond).String()}
	if err != nil {
		p.Error = err.Error()
		return p
	}
	p.Empty = empty(v)
	p.OK, p.Data = !p.Empty, v
	return p
}
