// Package analysis asks an LLM for a structured buy/sell strategy. It never
// fails: every problem degrades to a placeholder strategy.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"stockmind/internal/httpx"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-sonnet-4-5"
	DefaultVersion   = "2023-06-01"
	DefaultMaxTokens = 2000

	systemPrompt = "전문 주식 애널리스트. 반드시 순수 JSON만 출력. 마크다운 없음."
)

var (
	ErrMissingCredential = errors.New("analysis: missing credential")
	ErrProviderFailure   = errors.New("analysis: provider failure")
	ErrUnparsable        = errors.New("analysis: unparsable model output")
)

type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Version   string
	MaxTokens int
}

type Service struct {
	cfg    Config
	client *httpx.Client
	log    zerolog.Logger
}

func New(cfg Config, hc *httpx.Client, log zerolog.Logger) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Service{cfg: cfg, client: hc, log: log.With().Str("component", "analysis").Logger()}
}

// Analyze always returns a complete strategy.
func (s *Service) Analyze(ctx context.Context, prompt string) Strategy {
	st, err := s.Request(ctx, prompt)
	if err == nil {
		return st
	}
	s.log.Warn().Err(err).Msg("analysis degraded")
	return Degraded(degradedMessage(err))
}

func degradedMessage(err error) string {
	var upErr *httpx.UpstreamHTTPError
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "ANTHROPIC_API_KEY 환경변수 미설정"
	case errors.As(err, &upErr):
		return fmt.Sprintf("Claude API 오류 %d", upErr.Status)
	case errors.Is(err, ErrUnparsable):
		return "파싱 오류"
	}
	return "Claude API 호출 실패"
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

// Request performs the model call and reports why it could not produce a
// strategy.
func (s *Service) Request(ctx context.Context, prompt string) (Strategy, error) {
	if s.cfg.APIKey == "" {
		return Strategy{}, ErrMissingCredential
	}

	header := http.Header{}
	header.Set("x-api-key", s.cfg.APIKey)
	header.Set("anthropic-version", s.cfg.Version)

	raw, err := s.client.PostJSON(ctx, strings.TrimRight(s.cfg.BaseURL, "/")+"/v1/messages", header, messagesRequest{
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.MaxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Strategy{}, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}

	return ParseStrategy(firstText(raw))
}

// firstText returns content[0].text of a messages response, or "{}".
func firstText(raw any) string {
	root, _ := raw.(map[string]any)
	content, _ := root["content"].([]any)
	if len(content) == 0 {
		return "{}"
	}
	block, _ := content[0].(map[string]any)
	if t, ok := block["text"].(string); ok && t != "" {
		return t
	}
	return "{}"
}
