package fallback

import "time"

// State is the position of a walk over a candidate list.
type State int

const (
	NotAttempted State = iota
	Trying
	Succeeded
	Exhausted
)

func (s State) String() string {
	switch s {
	case Trying:
		return "trying"
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	}
	return "not_attempted"
}

// Walk is the explicit state of one candidate walk: the current index, the
// attempts so far and the last error seen.
type Walk struct {
	state    State
	index    int
	total    int
	last     error
	source   string
	attempts []Attempt
}

func NewWalk(total int) *Walk {
	return &Walk{state: NotAttempted, index: -1, total: total}
}

// Next advances to the following candidate. It reports false, and moves to
// Exhausted, once no candidate remains. It never advances a finished walk.
func (w *Walk) Next() bool {
	switch w.state {
	case Succeeded, Exhausted:
		return false
	}
	if w.index+1 >= w.total {
		w.state = Exhausted
		return false
	}
	w.index++
	w.state = Trying
	return true
}

// Fail records a demotion of the current candidate.
func (w *Walk) Fail(name string, err error, d time.Duration) {
	w.last = err
	w.attempts = append(w.attempts, Attempt{Name: name, Err: err, Duration: d})
}

// Succeed halts the walk on the current candidate.
func (w *Walk) Succeed(name string, d time.Duration) {
	w.state = Succeeded
	w.source = name
	w.attempts = append(w.attempts, Attempt{Name: name, Duration: d})
}

// Abort ends the walk without trying the remaining candidates.
func (w *Walk) Abort(err error) {
	w.state = Exhausted
	w.last = err
}

func (w *Walk) State() State { return w.state }
func (w *Walk) Index() int { return w.index }
func (w *Walk) Last() error { return w.last }
func (w *Walk) Attempts() []Attempt { return w.attempts }

// Source names the candidate that served the request, empty unless Succeeded.
func (w *Walk) Source() string { return w.source }
