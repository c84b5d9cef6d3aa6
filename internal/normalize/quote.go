package normalize

import (
	"errors"

	"github.com/shopspring/decimal"

	"stockmind/internal/provider"
	"stockmind/internal/symbol"
)

// ErrNoData is returned when an upstream answered successfully but carried no
// result container. The fallback chain treats it as a demotion signal.
var ErrNoData = errors.New("no data")

// marketCapUnit converts the domestic portal's 100-million-won unit into won.
const marketCapUnit = 100_000_000

func asRecord(raw any) (map[string]any, error) {
	rec, ok := raw.(map[string]any)
	if !ok || len(rec) == 0 {
		return nil, ErrNoData
	}
	return rec, nil
}

// DomesticQuote maps a domestic portal "basic" payload.
func DomesticQuote(raw any, cls symbol.Classification) (provider.Quote, error) {
	rec, err := asRecord(raw)
	if err != nil {
		return provider.Quote{}, err
	}
	r := domesticQuoteRules
	return provider.Quote{
		Symbol:    cls.Symbol,
		Name:      r.String(rec, "name", cls.NativeCode),
		Price:     r.Number(rec, "price"),
		Change:    r.Number(rec, "change"),
		ChangePct: r.Number(rec, "changePct"),
		Open:      r.Number(rec, "open"),
		High:      r.Number(rec, "high"),
		Low:       r.Number(rec, "low"),
		High52:    r.Number(rec, "high52"),
		Low52:     r.Number(rec, "low52"),
		Volume:    r.Number(rec, "volume"),
		MarketCap: r.Number(rec, "marketCap") * marketCapUnit,
		PER:       r.Number(rec, "per"),
		EPS:       r.Number(rec, "eps"),
		Currency:  "KRW",
		Exchange:  cls.Exchange(),
	}, nil
}

// InternationalQuote maps a flat international quote object (a chart "meta"
// block or a merged quote/profile pair). Change and percent change are
// derived from the previous close when the upstream omits them.
func InternationalQuote(raw any, sym string) (provider.Quote, error) {
	rec, err := asRecord(raw)
	if err != nil {
		return provider.Quote{}, err
	}
	r := internationalQuoteRules

	price := r.Number(rec, "price")
	prev, ok := r.PositiveNumber(rec, "previousClose")
	if !ok {
		prev = price
	}

	change := r.Number(rec, "change")
	if _, ok := r.Lookup(rec, "change"); !ok {
		change = round4(decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(prev)))
	}
	changePct := r.Number(rec, "changePct")
	if _, ok := r.Lookup(rec, "changePct"); !ok {
		changePct = 0
		if prev > 0 {
			changePct = round4(decimal.NewFromFloat(change).
				Div(decimal.NewFromFloat(prev)).
				Mul(decimal.NewFromInt(100)))
		}
	}

	return provider.Quote{
		Symbol:    sym,
		Name:      r.String(rec, "name", sym),
		Price:     price,
		Change:    change,
		ChangePct: changePct,
		Open:      r.Number(rec, "open"),
		High:      r.Number(rec, "high"),
		Low:       r.Number(rec, "low"),
		High52:    r.Number(rec, "high52"),
		Low52:     r.Number(rec, "low52"),
		Volume:    r.Number(rec, "volume"),
		MarketCap: r.Number(rec, "marketCap"),
		PER:       r.Number(rec, "per"),
		EPS:       r.Number(rec, "eps"),
		Currency:  r.String(rec, "currency", "USD"),
		Exchange:  r.String(rec, "exchange", "US"),
	}, nil
}

func round4(d decimal.Decimal) float64 {
	f, _ := d.Round(4).Float64()
	return f
}

// EmptyQuote reports whether q carries no usable price.
func EmptyQuote(q provider.Quote) bool { return q.Price <= 0 }
