package provider

import "errors"

// Quote is the canonical quote record returned for every symbol regardless of
// which upstream served it. Numeric fields are always finite; absent upstream
// data is 0.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"changePct"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	High52    float64 `json:"high52"`
	Low52     float64 `json:"low52"`
	Volume    float64 `json:"volume"`
	MarketCap float64 `json:"marketCap"`
	PER       float64 `json:"per"`
	EPS       float64 `json:"eps"`
	Currency  string  `json:"currency"`
	Exchange  string  `json:"exchange"`
	Source    string  `json:"source,omitempty"`
}

// HistoryPoint is one daily bar. Date is YYYY-MM-DD. Open, High, Low and
// Volume are only populated by upstreams that return full candles.
type HistoryPoint struct {
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
	Open   float64 `json:"open,omitempty"`
	High   float64 `json:"high,omitempty"`
	Low    float64 `json:"low,omitempty"`
	Volume float64 `json:"volume,omitempty"`
}

// History is ordered ascending by date.
type History []HistoryPoint

// Listing is one symbol search hit.
type Listing struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Market string `json:"market"`
}

// ErrMalformedInput marks a missing or invalid request parameter. It never
// reaches an upstream.
var ErrMalformedInput = errors.New("malformed input")
