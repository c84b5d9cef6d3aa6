package app_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmind/internal/app"
	"stockmind/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	a, err := app.New(config.Default(), zerolog.Nop())
	require.NoError(t, err)

	assert.Nil(t, a.FMP)
	assert.Positive(t, a.Tickers.Len())
	assert.NotNil(t, a.Market)
	assert.NotNil(t, a.Search)
	assert.NotNil(t, a.Analysis)
	assert.Equal(t, "005930.KS", a.Search.Resolve("삼성전자"))
}

func TestNew_FMPEnabled(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.FMP.Enabled = true
	cfg.FMP.APIKey = "k"

	a, err := app.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, a.FMP)
}

func TestNew_FMPCarriesUpstreamIdentity(t *testing.T) {
	t.Parallel()

	// Arrange: an FMP stand-in that records the request headers.
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`[{"symbol":"AAPL","price":190.5}]`))
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.FMP.Enabled = true
	cfg.FMP.APIKey = "k"
	cfg.FMP.BaseURL = srv.URL
	cfg.Upstream.UserAgent = "stockmind-test/1.0"
	cfg.Upstream.AcceptLanguage = "en-US"

	a, err := app.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, a.FMP)

	// Act
	_, err = a.FMP.GetQuote(t.Context(), "AAPL")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "stockmind-test/1.0", got.Get("User-Agent"))
	assert.Equal(t, "en-US", got.Get("Accept-Language"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

func TestNew_MissingTickerFile(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Search.TickersFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := app.New(cfg, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUpstreamClient_Overrides(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Upstream.UserAgent = "stockmind-test/1.0"
	cfg.Upstream.AcceptLanguage = "en-US"

	hc := app.UpstreamClient(cfg)
	assert.Equal(t, "stockmind-test/1.0", hc.UserAgent)
	assert.Equal(t, "en-US", hc.Headers["Accept-Language"])
}
