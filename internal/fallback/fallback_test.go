package fallback_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmind/internal/fallback"
)

type counted struct {
	calls int
	value int
	err   error
}

func (c *counted) candidate(name string) fallback.Candidate[int] {
	return fallback.Candidate[int]{
		Name: name,
		Fetch: func(context.Context) (int, error) {
			c.calls++
			return c.value, c.err
		},
	}
}

func chain(cands ...fallback.Candidate[int]) fallback.Chain[int] {
	return fallback.Chain[int]{
		Request:        "quote AAPL",
		Candidates:     cands,
		Empty:          func(v int) bool { return v == 0 },
		AttemptTimeout: 50 * time.Millisecond,
		Log:            zerolog.Nop(),
	}
}

func TestChain_FirstSuccessHaltsWalk(t *testing.T) {
	t.Parallel()

	// Arrange: [fail, fail, succeed, succeed]
	a := &counted{err: errors.New("a down")}
	b := &counted{err: errors.New("b down")}
	c := &counted{value: 42}
	d := &counted{value: 7}

	// Act
	got, walk, err := chain(a.candidate("a"), b.candidate("b"), c.candidate("c"), d.candidate("d")).Run(t.Context())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, []int{1, 1, 1, 0}, []int{a.calls, b.calls, c.calls, d.calls})
	assert.Equal(t, fallback.Succeeded, walk.State())
	assert.Equal(t, "c", walk.Source())
	assert.Equal(t, 2, walk.Index())
	require.Len(t, walk.Attempts(), 3)
	assert.Error(t, walk.Attempts()[0].Err)
	assert.NoError(t, walk.Attempts()[2].Err)
}

func TestChain_AllFailingIsExhausted(t *testing.T) {
	t.Parallel()

	last := errors.New("last down")
	a := &counted{err: errors.New("first down")}
	b := &counted{err: last}

	_, walk, err := chain(a.candidate("a"), b.candidate("b")).Run(t.Context())

	require.ErrorIs(t, err, fallback.ErrAllSourcesExhausted)
	require.ErrorIs(t, err, fallback.ErrUpstreamUnavailable)
	require.ErrorIs(t, err, last)
	var ex *fallback.ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Len(t, ex.Attempts, 2)
	assert.Contains(t, err.Error(), "last down")
	assert.Equal(t, fallback.Exhausted, walk.State())
}

func TestChain_AllEmptyIsExhausted(t *testing.T) {
	t.Parallel()

	a := &counted{}
	b := &counted{}

	_, _, err := chain(a.candidate("a"), b.candidate("b")).Run(t.Context())

	require.ErrorIs(t, err, fallback.ErrAllSourcesExhausted)
	require.ErrorIs(t, err, fallback.ErrEmptyResult)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestChain_NoCandidates(t *testing.T) {
	t.Parallel()

	_, walk, err := chain().Run(t.Context())

	require.ErrorIs(t, err, fallback.ErrAllSourcesExhausted)
	assert.Equal(t, fallback.Exhausted, walk.State())
}

func TestChain_TimeoutDemotes(t *testing.T) {
	t.Parallel()

	// Arrange: a candidate that only returns once its attempt deadline fires.
	slow := fallback.Candidate[int]{
		Name: "slow",
		Fetch: func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	}
	fast := &counted{value: 9}

	// Act
	got, walk, err := chain(slow, fast.candidate("fast")).Run(t.Context())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 9, got)
	assert.ErrorIs(t, walk.Attempts()[0].Err, context.DeadlineExceeded)
}

func TestChain_CancelledCallerStopsWalk(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	first := fallback.Candidate[int]{
		Name: "first",
		Fetch: func(context.Context) (int, error) {
			cancel()
			return 0, errors.New("interrupted")
		},
	}
	second := &counted{value: 1}

	_, walk, err := chain(first, second.candidate("second")).Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, fallback.ErrAllSourcesExhausted)
	assert.Zero(t, second.calls)
	assert.Equal(t, fallback.Exhausted, walk.State())
}

func TestWalk_StateTransitions(t *testing.T) {
	t.Parallel()

	w := fallback.NewWalk(2)
	assert.Equal(t, fallback.NotAttempted, w.State())
	assert.Equal(t, "not_attempted", w.State().String())

	require.True(t, w.Next())
	assert.Equal(t, fallback.Trying, w.State())
	w.Fail("a", errors.New("x"), 0)

	require.True(t, w.Next())
	w.Succeed("b", 0)
	assert.Equal(t, "succeeded", w.State().String())
	assert.False(t, w.Next(), "finished walks never advance")
	assert.Equal(t, 1, w.Index())
}
