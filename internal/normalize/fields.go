package normalize

import "fmt"

// Field names one logical value and the upstream keys that may carry it, in
// priority order.
type Field struct {
	Name string
	Keys []string
}

// Rules is an extractor table: one Field per logical value.
type Rules []Field

func (r Rules) keys(name string) []string {
	for _, f := range r {
		if f.Name == name {
			return f.Keys
		}
	}
	return nil
}

// Lookup returns the first present, non-null, non-empty value among the
// field's keys.
func (r Rules) Lookup(rec map[string]any, name string) (any, bool) {
	for _, k := range r.keys(name) {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// Number extracts a field as a finite number, 0 when absent.
func (r Rules) Number(rec map[string]any, name string) float64 {
	v, _ := r.Lookup(rec, name)
	return ToNumber(v)
}

// PositiveNumber returns the first strictly positive value among the field's
// keys. Zero and negative values fall through to the next key.
func (r Rules) PositiveNumber(rec map[string]any, name string) (float64, bool) {
	for _, k := range r.keys(name) {
		if f := ToNumber(rec[k]); f > 0 {
			return f, true
		}
	}
	return 0, false
}

// String extracts a field as a string, def when absent.
func (r Rules) String(rec map[string]any, name, def string) string {
	v, ok := r.Lookup(rec, name)
	if !ok {
		return def
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// Compact dates sometimes arrive as bare numbers.
		return fmt.Sprintf("%.0f", s)
	default:
		return fmt.Sprint(s)
	}
}

var domesticQuoteRules = Rules{
	{Name: "name", Keys: []string{"stockName", "corporateName"}},
	{Name: "price", Keys: []string{"closePrice", "currentPrice"}},
	{Name: "change", Keys: []string{"compareToPreviousClosePrice"}},
	{Name: "changePct", Keys: []string{"fluctuationsRatio"}},
	{Name: "open", Keys: []string{"openPrice"}},
	{Name: "high", Keys: []string{"highPrice"}},
	{Name: "low", Keys: []string{"lowPrice"}},
	{Name: "high52", Keys: []string{"yearlyHighPrice"}},
	{Name: "low52", Keys: []string{"yearlyLowPrice"}},
	{Name: "volume", Keys: []string{"accumulatedTradingVolume", "tradingVolume"}},
	{Name: "marketCap", Keys: []string{"marketValue"}},
	{Name: "per", Keys: []string{"per"}},
	{Name: "eps", Keys: []string{"eps"}},
}

var internationalQuoteRules = Rules{
	{Name: "name", Keys: []string{"longName", "shortName", "name", "companyName"}},
	{Name: "price", Keys: []string{"regularMarketPrice", "price"}},
	{Name: "previousClose", Keys: []string{"previousClose", "chartPreviousClose", "regularMarketPreviousClose"}},
	{Name: "change", Keys: []string{"change", "regularMarketChange"}},
	{Name: "changePct", Keys: []string{"changesPercentage", "regularMarketChangePercent"}},
	{Name: "open", Keys: []string{"regularMarketOpen", "open"}},
	{Name: "high", Keys: []string{"regularMarketDayHigh", "dayHigh"}},
	{Name: "low", Keys: []string{"regularMarketDayLow", "dayLow"}},
	{Name: "high52", Keys: []string{"fiftyTwoWeekHigh", "yearHigh"}},
	{Name: "low52", Keys: []string{"fiftyTwoWeekLow", "yearLow"}},
	{Name: "volume", Keys: []string{"regularMarketVolume", "volume"}},
	{Name: "marketCap", Keys: []string{"marketCap", "mktCap"}},
	{Name: "per", Keys: []string{"pe", "trailingPE"}},
	{Name: "eps", Keys: []string{"eps", "epsTrailingTwelveMonths"}},
	{Name: "currency", Keys: []string{"currency"}},
	{Name: "exchange", Keys: []string{"exchangeName", "exchange", "exchangeShortName"}},
}

var historyRules = Rules{
	{Name: "date", Keys: []string{"localDate", "date", "localTradedAt"}},
	{Name: "close", Keys: []string{"closePrice", "close"}},
	{Name: "open", Keys: []string{"openPrice", "open"}},
	{Name: "high", Keys: []string{"highPrice", "high"}},
	{Name: "low", Keys: []string{"lowPrice", "low"}},
	{Name: "volume", Keys: []string{"accumulatedTradingVolume", "volume"}},
}

// historyContainerKeys are checked in order when a history payload is an
// object instead of a bare array.
var historyContainerKeys = []string{"candles", "candleList", "chartDataList", "priceInfos", "historical"}
