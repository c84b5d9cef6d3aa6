// Package market picks the upstream candidates for a classified symbol and
// walks them until one serves the request.
package market

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"stockmind/internal/fallback"
	"stockmind/internal/normalize"
	"stockmind/internal/provider"
	"stockmind/internal/provider/fmp"
	"stockmind/internal/provider/naver"
	"stockmind/internal/provider/yahoo"
	"stockmind/internal/symbol"
)

// History window bounds, in trading days.
const (
	DefaultDays = 30
	MinDays     = 1
	MaxDays     = 365
)

// ClampDays forces days into [MinDays, MaxDays].
func ClampDays(days int) int {
	return min(max(days, MinDays), MaxDays)
}

type Config struct {
	AttemptTimeout time.Duration
	// SyntheticFallback appends the primary Yahoo mirror, queried with the
	// suffixed domestic symbol, after the domestic endpoints.
	SyntheticFallback bool
}

// Service is stateless apart from its collaborators and safe for concurrent use.
type Service struct {
	cfg   Config
	naver *naver.Provider
	yahoo *yahoo.Provider
	fmp   *fmp.FMPAPIClient
	log   zerolog.Logger
}

// New builds a Service. fmpClient may be nil when no key is configured.
func New(cfg Config, nv *naver.Provider, yh *yahoo.Provider, fmpClient *fmp.FMPAPIClient, log zerolog.Logger) *Service {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = fallback.DefaultAttemptTimeout
	}
	return &Service{
		cfg:   cfg,
		naver: nv,
		yahoo: yh,
		fmp:   fmpClient,
		log:   log.With().Str("component", "market").Logger(),
	}
}

// SyntheticSymbol is the international ticker assumed to mirror a domestic
// listing. Not every domestic instrument has one.
func SyntheticSymbol(cls symbol.Classification) string {
	return cls.NativeCode + cls.Suffix
}

// QuoteCandidates lists the quote endpoints for cls in priority order.
func (s *Service) QuoteCandidates(cls symbol.Classification) []fallback.Candidate[provider.Quote] {
	if cls.IsDomestic() {
		cands := s.naver.QuoteCandidates(cls)
		if s.cfg.SyntheticFallback {
			c := s.yahoo.PrimaryQuote(SyntheticSymbol(cls))
			fetch := c.Fetch
			c.Fetch = func(ctx context.Context) (provider.Quote, error) {
				q, err := fetch(ctx)
				if err != nil {
					return q, err
				}
				q.Symbol = cls.Symbol
				q.Exchange = cls.Exchange()
				return q, nil
			}
			cands = append(cands, c)
		}
		return cands
	}

	cands := s.yahoo.QuoteCandidates(cls.Symbol)
	if s.fmp != nil {
		cands = append(cands, s.fmp.QuoteCandidate(cls.Symbol))
	}
	return cands
}

// HistoryCandidates lists the daily-bar endpoints for cls in priority order.
func (s *Service) HistoryCandidates(cls symbol.Classification, days int) []fallback.Candidate[provider.History] {
	if cls.IsDomestic() {
		cands := s.naver.HistoryCandidates(cls, days)
		if s.cfg.SyntheticFallback {
			cands = append(cands, s.yahoo.PrimaryHistory(SyntheticSymbol(cls), days))
		}
		return cands
	}

	cands := s.yahoo.HistoryCandidates(cls.Symbol, days)
	if s.fmp != nil {
		cands = append(cands, s.fmp.HistoryCandidate(cls.Symbol, days))
	}
	return cands
}

// Quote returns the first non-empty quote for cls.
func (s *Service) Quote(ctx context.Context, cls symbol.Classification) (provider.Quote, error) {
	q, _, err := fallback.Chain[provider.Quote]{
		Request:        "quote " + cls.Symbol,
		Candidates:     s.QuoteCandidates(cls),
		Empty:          normalize.EmptyQuote,
		AttemptTimeout: s.cfg.AttemptTimeout,
		Log:            s.log.With().Str("family", cls.Family.String()).Logger(),
	}.Run(ctx)
	if err != nil {
		return provider.Quote{}, err
	}
	return q, nil
}

// History returns up to days bars for cls and the name of the candidate that
// served them. days is clamped.
func (s *Service) History(ctx context.Context, cls symbol.Classification, days int) (provider.History, string, error) {
	days = ClampDays(days)
	h, walk, err := fallback.Chain[provider.History]{
		Request:        "history " + cls.Symbol,
		Candidates:     s.HistoryCandidates(cls, days),
		Empty:          func(h provider.History) bool { return len(h) == 0 },
		AttemptTimeout: s.cfg.AttemptTimeout,
		Log:            s.log.With().Str("family", cls.Family.String()).Logger(),
	}.Run(ctx)
	if err != nil {
		return nil, "", err
	}
	return h, walk.Source(), nil
}
