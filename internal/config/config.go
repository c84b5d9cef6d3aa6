package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

type Server struct {
	Port              string `json:"port" validate:"required"`
	RequestTimeoutSec int    `json:"request_timeout_sec" validate:"gt=0"`
}

type Log struct {
	Level  string `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Pretty bool   `json:"pretty"`
}

type Upstream struct {
	TimeoutSec        int    `json:"timeout_sec" validate:"gt=0"`
	AttemptTimeoutSec int    `json:"attempt_timeout_sec" validate:"gt=0"`
	UserAgent         string `json:"user_agent"`
	AcceptLanguage    string `json:"accept_language"`
}

type Naver struct {
	MobileBaseURL     string `json:"mobile_base_url" validate:"omitempty,url"`
	APIBaseURL        string `json:"api_base_url" validate:"omitempty,url"`
	Referer           string `json:"referer"`
	SyntheticFallback bool   `json:"synthetic_fallback"`
}

type Yahoo struct {
	PrimaryURL   string `json:"primary_url" validate:"omitempty,url"`
	SecondaryURL string `json:"secondary_url" validate:"omitempty,url"`
	Referer      string `json:"referer"`
}

type FMP struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"api_key" validate:"required_if=Enabled true"`
	BaseURL string `json:"base_url" validate:"omitempty,url"`
}

type Anthropic struct {
	APIKey    string `json:"api_key"`
	BaseURL   string `json:"base_url" validate:"omitempty,url"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens" validate:"gte=0"`
	Version   string `json:"version"`
}

type Search struct {
	TickersFile string `json:"tickers_file"`
	Passthrough bool   `json:"passthrough"`
	Limit       int    `json:"limit" validate:"gte=0"`
}

type Config struct {
	Server    Server    `json:"server"`
	Log       Log       `json:"log"`
	Upstream  Upstream  `json:"upstream"`
	Naver     Naver     `json:"naver"`
	Yahoo     Yahoo     `json:"yahoo"`
	FMP       FMP       `json:"fmp"`
	Anthropic Anthropic `json:"anthropic"`
	Search    Search    `json:"search"`
}

func Default() Config {
	return Config{
		Server:   Server{Port: "8080", RequestTimeoutSec: 30},
		Log:      Log{Level: "info"},
		Upstream: Upstream{TimeoutSec: 10, AttemptTimeoutSec: 6},
		Naver:    Naver{SyntheticFallback: true},
		Anthropic: Anthropic{
			MaxTokens: 2000,
		},
		Search: Search{Passthrough: true, Limit: 10},
	}
}

// RequestTimeout is the per-request budget enforced at the HTTP boundary.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSec) * time.Second
}

func (c Config) AttemptTimeout() time.Duration {
	return time.Duration(c.Upstream.AttemptTimeoutSec) * time.Second
}

var validate = validator.New()

// MaxCandidates is the length of the longest fallback chain: three domestic
// endpoints plus the synthetic international one.
const MaxCandidates = 4

// Validate rejects non-positive timeouts, malformed URLs and an attempt
// timeout that would let a full chain outlive the request.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Upstream.AttemptTimeoutSec*MaxCandidates > c.Server.RequestTimeoutSec {
		return fmt.Errorf("invalid config: attempt_timeout_sec %d x %d candidates exceeds request_timeout_sec %d",
			c.Upstream.AttemptTimeoutSec, MaxCandidates, c.Server.RequestTimeoutSec)
	}
	return nil
}

// Load reads JSON config from path. If path is empty, CONFIG_FILE and then
// ./config.json are tried; a missing file yields defaults. A .env file in the
// working directory is loaded first, and environment variables override
// select fields, including every secret.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	envInt("REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	envBool("LOG_PRETTY", &cfg.Log.Pretty)

	envInt("UPSTREAM_TIMEOUT_SEC", &cfg.Upstream.TimeoutSec)
	envInt("ATTEMPT_TIMEOUT_SEC", &cfg.Upstream.AttemptTimeoutSec)
	envBool("NAVER_SYNTHETIC_FALLBACK", &cfg.Naver.SyntheticFallback)

	if v := os.Getenv("FMP_API_KEY"); v != "" {
		cfg.FMP.APIKey = v
		cfg.FMP.Enabled = true
	}
	if v := os.Getenv("FMP_BASE_URL"); v != "" {
		cfg.FMP.BaseURL = v
	}

	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Anthropic.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_MODEL"); v != "" {
		cfg.Anthropic.Model = v
	}
	if v := os.Getenv("ANTHROPIC_BASE_URL"); v != "" {
		cfg.Anthropic.BaseURL = v
	}

	if v := os.Getenv("TICKERS_FILE"); v != "" {
		cfg.Search.TickersFile = v
	}
	envBool("SEARCH_PASSTHROUGH", &cfg.Search.Passthrough)
}

// envInt overwrites dst when the variable holds an integer. Range checks are
// left to Validate.
func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if x, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		*dst = x
	}
}

func envBool(key string, dst *bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		*dst = true
	case "0", "false", "no", "n":
		*dst = false
	}
}
