// Package envelope wraps every API response in {"ok": bool, ...}.
package envelope

import (
	"time"

	"stockmind/internal/analysis"
	"stockmind/internal/provider"
)

type QuoteEnvelope struct {
	OK bool `json:"ok"`
	provider.Quote
}

type HistoryEnvelope struct {
	OK      bool             `json:"ok"`
	Symbol  string           `json:"symbol"`
	Source  string           `json:"source,omitempty"`
	History provider.History `json:"history"`
}

type SearchEnvelope struct {
	OK      bool               `json:"ok"`
	Results []provider.Listing `json:"results"`
}

type AnalysisEnvelope struct {
	OK bool `json:"ok"`
	analysis.Strategy
}

// Failure never carries a record.
type Failure struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type Health struct {
	OK        bool     `json:"ok"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
	Endpoints []string `json:"endpoints"`
}

func Quote(q provider.Quote) QuoteEnvelope {
	return QuoteEnvelope{OK: true, Quote: q}
}

// History always serializes the series as an array, never null.
func History(sym, source string, h provider.History) HistoryEnvelope {
	if h == nil {
		h = provider.History{}
	}
	return HistoryEnvelope{OK: true, Symbol: sym, Source: source, History: h}
}

func Search(results []provider.Listing) SearchEnvelope {
	if results == nil {
		results = []provider.Listing{}
	}
	return SearchEnvelope{OK: true, Results: results}
}

// Analysis is used for model answers and degraded placeholders alike.
func Analysis(st analysis.Strategy) AnalysisEnvelope {
	return AnalysisEnvelope{OK: true, Strategy: st}
}

func Fail(msg string) Failure {
	return Failure{OK: false, Error: msg}
}

func Healthy(msg string, now time.Time, endpoints []string) Health {
	return Health{OK: true, Message: msg, Timestamp: now.UTC().Format(time.RFC3339), Endpoints: endpoints}
}
