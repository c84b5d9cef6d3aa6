// Package search resolves free-text queries against the reference ticker
// table, optionally topped up by an upstream symbol search.
package search

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"stockmind/internal/provider"
	"stockmind/internal/symbol"
)

// DefaultLimit caps the number of results when none is configured.
const DefaultLimit = 10

var domesticCode = regexp.MustCompile(`^\d{6}$`)

// Upstream is a remote symbol search.
type Upstream interface {
	Search(ctx context.Context, query string, limit int) ([]provider.Listing, error)
}

type Config struct {
	Limit int
	// Passthrough enables the upstream search when set and Upstream is non-nil.
	Passthrough bool
}

type Service struct {
	cfg      Config
	table    *Table
	upstream Upstream
	log      zerolog.Logger
}

func New(cfg Config, table *Table, upstream Upstream, log zerolog.Logger) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Service{cfg: cfg, table: table, upstream: upstream, log: log.With().Str("component", "search").Logger()}
}

// Resolve maps a free-text query to a ticker symbol: an alias or exact table
// match first, then a bare 6-digit code as a KOSPI symbol, else the
// upper-cased query.
func (s *Service) Resolve(query string) string {
	q := strings.TrimSpace(query)
	key := Fold(q)
	if i, ok := s.table.alias[key]; ok {
		return s.table.tickers[i].Symbol
	}
	for i := range s.table.tickers {
		if s.table.match(i, key) == 3 {
			return s.table.tickers[i].Symbol
		}
	}
	if domesticCode.MatchString(q) {
		return q + symbol.SuffixKOSPI
	}
	return strings.ToUpper(q)
}

// Search returns up to the configured limit of listings. Table hits come
// first, best match first. Upstream failures are logged and never fail the
// search.
func (s *Service) Search(ctx context.Context, query string) ([]provider.Listing, error) {
	key := Fold(query)
	if key == "" {
		return []provider.Listing{}, nil
	}

	out := make([]provider.Listing, 0, s.cfg.Limit)
	seen := map[string]struct{}{}
	add := func(l provider.Listing) bool {
		if _, dup := seen[l.Symbol]; dup {
			return len(out) < s.cfg.Limit
		}
		seen[l.Symbol] = struct{}{}
		out = append(out, l)
		return len(out) < s.cfg.Limit
	}

	type hit struct{ idx, rank int }
	var hits []hit
	if i, ok := s.table.alias[key]; ok {
		hits = append(hits, hit{i, 4})
	}
	for i := range s.table.tickers {
		if r := s.table.match(i, key); r > 0 {
			hits = append(hits, hit{i, r})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].rank > hits[b].rank })

	for _, h := range hits {
		tk := s.table.tickers[h.idx]
		if !add(provider.Listing{Symbol: tk.Symbol, Name: tk.Name, Market: tk.Market}) {
			return out, nil
		}
	}

	q := strings.TrimSpace(query)
	if domesticCode.MatchString(q) {
		if !add(provider.Listing{Symbol: q + symbol.SuffixKOSPI, Name: q, Market: "KOSPI"}) {
			return out, nil
		}
	}

	if s.cfg.Passthrough && s.upstream != nil {
		remote, err := s.upstream.Search(ctx, q, s.cfg.Limit)
		if err != nil {
			s.log.Warn().Err(err).Str("query", q).Msg("upstream search failed")
			return out, nil
		}
		for _, l := range remote {
			if !add(l) {
				break
			}
		}
	}
	return out, nil
}
