package normalize_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmind/internal/normalize"
	"stockmind/internal/provider"
)

func dailyRecords() []any {
	closes := []any{"100", "101", 0.0, "103", "104", "0", "106", "107"}
	out := make([]any, 0, len(closes))
	for i, c := range closes {
		out = append(out, map[string]any{
			"localDate":  "2024030" + string(rune('1'+i)),
			"closePrice": c,
		})
	}
	return out
}

func TestHistory_KeepsMostRecentValidRecords(t *testing.T) {
	t.Parallel()

	// Arrange: 8 ascending records, two with a zero close.
	raw := dailyRecords()

	// Act
	got := normalize.History(raw, 5)

	// Assert: the 5 most recent of the 6 valid records, ascending.
	require.Len(t, got, 5)
	want := []string{"2024-03-02", "2024-03-04", "2024-03-05", "2024-03-07", "2024-03-08"}
	for i, p := range got {
		assert.Equal(t, want[i], p.Date)
		assert.Positive(t, p.Close)
	}
	assert.Equal(t, 107.0, got[4].Close)
}

func TestHistory_UnwrapsContainers(t *testing.T) {
	t.Parallel()

	rec := []any{map[string]any{"date": "2024-01-02", "close": 5.0}}
	for _, key := range []string{"candles", "candleList", "chartDataList", "priceInfos", "historical"} {
		got := normalize.History(map[string]any{key: rec}, 30)
		require.Len(t, got, 1, key)
		assert.Equal(t, "2024-01-02", got[0].Date)
	}
}

func TestHistory_SortsDescendingInput(t *testing.T) {
	t.Parallel()

	// Arrange: historical list in newest-first order with full candles.
	raw := map[string]any{"historical": []any{
		map[string]any{"date": "2024-01-04", "close": 3.0, "open": 2.5, "high": 3.1, "low": 2.4, "volume": 900.0},
		map[string]any{"date": "2024-01-03", "close": 2.0},
		map[string]any{"date": "2024-01-02", "close": 1.0},
	}}

	got := normalize.History(raw, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-03", got[0].Date)
	assert.Equal(t, provider.HistoryPoint{Date: "2024-01-04", Close: 3, Open: 2.5, High: 3.1, Low: 2.4, Volume: 900}, got[1])
}

func TestHistory_DropsShortDatesAndJunk(t *testing.T) {
	t.Parallel()

	raw := []any{
		map[string]any{"date": "2024", "close": 1.0},
		map[string]any{"close": 1.0},
		"not a record",
		map[string]any{"localDate": 20240105.0, "closePrice": "1,200"},
	}

	got := normalize.History(raw, 10)

	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-05", got[0].Date)
	assert.Equal(t, 1200.0, got[0].Close)
}

func TestHistory_EmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, normalize.History(nil, 5))
	assert.Empty(t, normalize.History(map[string]any{"other": []any{}}, 5))
	assert.Empty(t, normalize.History([]any{}, 5))
}

func TestHistory_RoundTrip(t *testing.T) {
	t.Parallel()

	// Arrange: already normalized, sorted, positive, within the window.
	in := provider.History{
		{Date: "2024-02-01", Close: 10},
		{Date: "2024-02-02", Close: 11},
		{Date: "2024-02-05", Close: 9.5},
	}
	raw := make([]any, 0, len(in))
	for _, p := range in {
		raw = append(raw, map[string]any{"date": p.Date, "close": p.Close})
	}

	got := normalize.History(raw, 5)

	assert.Equal(t, in, got)
	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool { return got[i].Date < got[j].Date }))
}
