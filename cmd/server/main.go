package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"stockmind/internal/app"
	"stockmind/internal/config"
	"stockmind/internal/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	lg := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	a, err := app.New(cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("startup")
	}
	if cfg.Anthropic.APIKey == "" {
		lg.Warn().Msg("ANTHROPIC_API_KEY not set; analysis answers with placeholders")
	}

	s := &server{
		market:   a.Market,
		search:   a.Search,
		analysis: a.Analysis,
		log:      lg.With().Str("component", "server").Logger(),
		timeout:  cfg.RequestTimeout(),
		now:      time.Now,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		lg.Info().Str("port", cfg.Server.Port).
			Int("tickers", a.Tickers.Len()).
			Bool("fmp", a.FMP != nil).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	lg.Info().Msg("server stopped")
}
