package normalize

import (
	"sort"

	"stockmind/internal/provider"
)

// History extracts daily bars from raw, which is either a bare array of
// records or an object wrapping one under a known key. Records with a
// non-positive close or a date shorter than 8 characters are dropped. The
// result is ascending by date and holds at most days points, counted from
// the most recent end. An empty result is not an error.
func History(raw any, days int) provider.History {
	records := historyRecords(raw)
	out := make(provider.History, 0, len(records))
	r := historyRules
	for _, item := range records {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		p := provider.HistoryPoint{
			Date:   normalizeDate(r.String(rec, "date", "")),
			Close:  r.Number(rec, "close"),
			Open:   r.Number(rec, "open"),
			High:   r.Number(rec, "high"),
			Low:    r.Number(rec, "low"),
			Volume: r.Number(rec, "volume"),
		}
		if p.Close <= 0 || len(p.Date) < 8 {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	if days >= 0 && len(out) > days {
		out = out[len(out)-days:]
	}
	return out
}

func historyRecords(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case map[string]any:
		for _, k := range historyContainerKeys {
			if arr, ok := v[k].([]any); ok {
				return arr
			}
		}
	}
	return nil
}

// normalizeDate turns a compact YYYYMMDD string into YYYY-MM-DD and passes
// anything else through unchanged.
func normalizeDate(s string) string {
	if len(s) != 8 {
		return s
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return s
		}
	}
	return s[:4] + "-" + s[4:6] + "-" + s[6:]
}
