// Package normalize maps loosely shaped upstream JSON into canonical quote and
// history records.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ToNumber coerces v into a finite float64. Strings may carry thousands
// separators. Anything unparsable, nil, NaN or infinite becomes 0.
func ToNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		f = parseNumber(string(n))
	case string:
		f = parseNumber(n)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
