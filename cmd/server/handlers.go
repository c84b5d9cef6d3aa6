package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"stockmind/internal/envelope"
	"stockmind/internal/market"
	"stockmind/internal/provider"
	"stockmind/internal/symbol"
)

var validate = validator.New()

type stockRequest struct {
	Action string `validate:"required,oneof=quote history chart search"`
	Symbol string `validate:"required_unless=Action search"`
	Query  string `validate:"required_if=Action search"`
	Days   int
}

func parseStockRequest(r *http.Request) (stockRequest, error) {
	q := r.URL.Query()
	req := stockRequest{
		Action: strings.ToLower(strings.TrimSpace(q.Get("action"))),
		Symbol: strings.ToUpper(strings.TrimSpace(q.Get("symbol"))),
		Query:  strings.TrimSpace(q.Get("q")),
		Days:   market.DefaultDays,
	}
	if req.Action == "search" && req.Query == "" {
		req.Query = strings.TrimSpace(q.Get("symbol"))
	}
	if v := strings.TrimSpace(q.Get("days")); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%w: days must be an integer", provider.ErrMalformedInput)
		}
		req.Days = d
	}
	if err := validate.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

func (s *server) handleStock(w http.ResponseWriter, r *http.Request) {
	req, err := parseStockRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()

	switch req.Action {
	case "quote":
		q, err := s.market.Quote(ctx, symbol.Classify(req.Symbol))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope.Quote(q))

	case "history", "chart":
		h, source, err := s.market.History(ctx, symbol.Classify(req.Symbol), req.Days)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope.History(req.Symbol, source, h))

	case "search":
		results, err := s.search.Search(ctx, req.Query)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope.Search(results))
	}
}

type analyzeRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid JSON body: %w", provider.ErrMalformedInput, err))
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if err := validate.Struct(req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope.Analysis(s.analysis.Analyze(r.Context(), req.Prompt)))
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope.Healthy("stockmind ok", s.now(), endpoints))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func failure(msg string) envelope.Failure { return envelope.Fail(msg) }

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msg = validationMessage(ve)
	}
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, failure(msg))
}

func validationMessage(ve validator.ValidationErrors) string {
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s: failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return "invalid request: " + strings.Join(parts, ", ")
}
