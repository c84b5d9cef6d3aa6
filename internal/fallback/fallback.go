// Package fallback walks an ordered list of upstream candidates until one
// yields a usable result.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultAttemptTimeout bounds a single candidate when the chain sets none.
const DefaultAttemptTimeout = 8 * time.Second

var (
	// ErrAllSourcesExhausted is matched by every *ExhaustedError.
	ErrAllSourcesExhausted = errors.New("all sources exhausted")
	// ErrUpstreamUnavailable is the boundary-facing alias of ErrAllSourcesExhausted.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrEmptyResult demotes a candidate that answered without usable data.
	ErrEmptyResult  = errors.New("empty result")
	errNoCandidates = errors.New("no candidates")
)

// Candidate is one fully formed way of serving a logical request.
type Candidate[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)
}

// Attempt records the outcome of one candidate.
type Attempt struct {
	Name     string
	Err      error
	Duration time.Duration
}

// ExhaustedError is returned when no candidate produced a usable result.
type ExhaustedError struct {
	Request  string
	Attempts []Attempt
	Last     error
}

func (e *ExhaustedError) Error() string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Name)
	}
	msg := fmt.Sprintf("%s: %s after %d attempt(s) [%s]", e.Request, ErrAllSourcesExhausted, len(e.Attempts), strings.Join(names, ", "))
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllSourcesExhausted || target == ErrUpstreamUnavailable
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Chain tries Candidates strictly in order. A candidate is demoted when it
// errors, exceeds AttemptTimeout or returns a value Empty reports as empty.
// The first usable value halts the walk.
type Chain[T any] struct {
	Request        string
	Candidates     []Candidate[T]
	Empty          func(T) bool
	AttemptTimeout time.Duration
	Log            zerolog.Logger
}

// Run executes the walk. The returned Walk is never nil.
func (c Chain[T]) Run(ctx context.Context) (T, *Walk, error) {
	var zero T
	w := NewWalk(len(c.Candidates))
	timeout := c.AttemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	log := c.Log.With().Str("request", c.Request).Logger()

	for w.Next() {
		if err := ctx.Err(); err != nil {
			w.Abort(err)
			return zero, w, fmt.Errorf("%s: %w", c.Request, err)
		}

		cand := c.Candidates[w.Index()]
		log.Debug().Str("candidate", cand.Name).Int("index", w.Index()).Msg("trying upstream")

		start := time.Now()
		v, err := c.attempt(ctx, cand, timeout)
		elapsed := time.Since(start)

		if err == nil {
			w.Succeed(cand.Name, elapsed)
			log.Debug().Str("candidate", cand.Name).Dur("took", elapsed).Msg("upstream served request")
			return v, w, nil
		}

		// A cancelled caller is not a demotion.
		if ctx.Err() != nil {
			w.Abort(ctx.Err())
			return zero, w, fmt.Errorf("%s: %w", c.Request, ctx.Err())
		}

		w.Fail(cand.Name, err, elapsed)
		log.Warn().Err(err).Str("candidate", cand.Name).Dur("took", elapsed).Msg("upstream demoted")
	}

	last := w.Last()
	if last == nil {
		last = errNoCandidates
	}
	log.Error().Err(last).Int("attempts", len(w.Attempts())).Msg("all upstreams exhausted")
	return zero, w, &ExhaustedError{Request: c.Request, Attempts: w.Attempts(), Last: last}
}

func (c Chain[T]) attempt(ctx context.Context, cand Candidate[T], timeout time.Duration) (T, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := cand.Fetch(actx)
	if err != nil {
		if errors.Is(actx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		return v, err
	}
	if c.Empty != nil && c.Empty(v) {
		return v, ErrEmptyResult
	}
	return v, nil
}
