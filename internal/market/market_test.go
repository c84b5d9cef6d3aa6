package market_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmind/internal/fallback"
	"stockmind/internal/httpx"
	"stockmind/internal/market"
	"stockmind/internal/provider/fmp"
	"stockmind/internal/provider/naver"
	"stockmind/internal/provider/yahoo"
	"stockmind/internal/symbol"
)

// upstream is a fake for every provider host, keyed by request path.
type upstream struct {
	mu     sync.Mutex
	calls  map[string]int
	routes map[string]func(w http.ResponseWriter)
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.calls[r.URL.Path]++
	route := u.routes[r.URL.Path]
	u.mu.Unlock()
	if route == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	route(w)
}

func (u *upstream) count(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[path]
}

func body(s string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { _, _ = w.Write([]byte(s)) }
}

func status(code int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { w.WriteHeader(code) }
}

func newService(t *testing.T, routes map[string]func(w http.ResponseWriter), withFMP bool) (*market.Service, *upstream) {
	t.Helper()
	up := &upstream{calls: map[string]int{}, routes: routes}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	hc := httpx.New(2 * time.Second)
	nv := naver.New(naver.Config{MobileBaseURL: srv.URL + "/m", APIBaseURL: srv.URL + "/chart"}, hc)
	yh := yahoo.New(yahoo.Config{PrimaryURL: srv.URL + "/q1", SecondaryURL: srv.URL + "/q2"}, hc)

	var fc *fmp.FMPAPIClient
	if withFMP {
		var err error
		fc, err = fmp.NewFMPAPIClient("k", fmp.WithBaseURL(srv.URL+"/fmp"))
		require.NoError(t, err)
	}

	svc := market.New(market.Config{AttemptTimeout: time.Second, SyntheticFallback: true}, nv, yh, fc, zerolog.Nop())
	return svc, up
}

func TestQuote_DomesticFirstEndpoint(t *testing.T) {
	t.Parallel()

	// Arrange
	svc, up := newService(t, map[string]func(http.ResponseWriter){
		"/m/005930/basic": body(`{"stockName":"삼성전자","closePrice":"71,000","compareToPreviousClosePrice":"500","fluctuationsRatio":"0.7","marketValue":"4000"}`),
	}, false)

	// Act
	q, err := svc.Quote(t.Context(), symbol.Classify("005930.KS"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 71000.0, q.Price)
	assert.Equal(t, "KOSPI", q.Exchange)
	assert.Zero(t, up.count("/m/005930/price"))
	assert.Zero(t, up.count("/q1/v8/finance/chart/005930.KS"))
}

func TestQuote_DomesticSyntheticFallback(t *testing.T) {
	t.Parallel()

	// Arrange: both domestic endpoints fail, one of them with an empty price.
	svc, up := newService(t, map[string]func(http.ResponseWriter){
		"/m/035720/basic":                 status(http.StatusInternalServerError),
		"/m/035720/price":                 body(`{"closePrice":"0"}`),
		"/q1/v8/finance/chart/035720.KQ": body(`{"chart":{"result":[{"meta":{"regularMarketPrice":41200,"chartPreviousClose":40000,"currency":"KRW","exchangeName":"KOE"}}]}}`),
	}, false)

	// Act
	q, err := svc.Quote(t.Context(), symbol.Classify("035720.KQ"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 41200.0, q.Price)
	assert.Equal(t, "KOSDAQ", q.Exchange)
	assert.Equal(t, "035720.KQ", q.Symbol)
	assert.Equal(t, 1, up.count("/m/035720/basic"))
	assert.Equal(t, 1, up.count("/m/035720/price"))
}

func TestQuote_InternationalExhausted(t *testing.T) {
	t.Parallel()

	svc, up := newService(t, map[string]func(http.ResponseWriter){}, true)

	_, err := svc.Quote(t.Context(), symbol.Classify("ZZZZ"))

	require.ErrorIs(t, err, fallback.ErrAllSourcesExhausted)
	assert.Equal(t, 1, up.count("/q1/v8/finance/chart/ZZZZ"))
	assert.Equal(t, 1, up.count("/q2/v8/finance/chart/ZZZZ"))
	assert.Equal(t, 1, up.count("/fmp/quote/ZZZZ"))
	assert.Equal(t, 1, up.count("/fmp/profile/ZZZZ"))
}

func TestHistory_DomesticDemotesEmptyResults(t *testing.T) {
	t.Parallel()

	// Arrange: the candle endpoint answers with no bars, the chart endpoint
	// serves the request.
	svc, up := newService(t, map[string]func(http.ResponseWriter){
		"/m/005930/candle/day": body(`{"candles":[]}`),
		"/chart/005930":        body(`{"chartDataList":[{"localDate":"20240307","closePrice":70500},{"localDate":"20240308","closePrice":71000}]}`),
	}, false)

	// Act
	h, source, err := svc.History(t.Context(), symbol.Classify("005930.KS"), 5)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "naver:chart", source)
	require.Len(t, h, 2)
	assert.Equal(t, "2024-03-08", h[1].Date)
	assert.Zero(t, up.count("/m/005930/price"))
}

func TestHistory_InternationalSecondaryMirror(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, map[string]func(http.ResponseWriter){
		"/q1/v8/finance/chart/AAPL": status(http.StatusTooManyRequests),
		"/q2/v8/finance/chart/AAPL": body(`{"chart":{"result":[{"timestamp":[1709537400],"indicators":{"quote":[{"close":[170.1]}]}}]}}`),
	}, false)

	h, source, err := svc.History(t.Context(), symbol.Classify("AAPL"), 0)

	require.NoError(t, err)
	assert.Equal(t, "yahoo:query2", source)
	require.Len(t, h, 1)
	assert.Equal(t, 170.1, h[0].Close)
}

func TestCandidates_ByFamily(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, nil, true)

	assert.Len(t, svc.QuoteCandidates(symbol.Classify("005930.KS")), 3)
	assert.Len(t, svc.HistoryCandidates(symbol.Classify("005930.KS"), 5), 4)
	assert.Len(t, svc.QuoteCandidates(symbol.Classify("AAPL")), 3)
	assert.Len(t, svc.HistoryCandidates(symbol.Classify("AAPL"), 5), 3)
}

func TestClampDays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, market.ClampDays(-4))
	assert.Equal(t, 30, market.ClampDays(30))
	assert.Equal(t, 365, market.ClampDays(1000))
}
