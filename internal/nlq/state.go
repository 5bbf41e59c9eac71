package nlq

import "time"

// State is the per-request record threaded through the three stages. Each
// field is set exactly once by its owning stage and never overwritten by a
// later one; a new State is created per question and discarded after the
// caller reads it.
type State struct {
	Question     string
	SQL          string
	RawResult    string
	Explanation  string
	UsedFallback bool

	// Observability extras; none of these affect control flow.
	RowCount int
	ExecErr  *ExecutionError
	Duration time.Duration
}

func newState(question string) *State {
	return &State{Question: question}
}
