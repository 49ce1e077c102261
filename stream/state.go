package stream

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/observability"
)

// State is the lifecycle state of an Any subscription.
//
//	StateActive → StateMatched    [predicate returned true]
//	StateActive → StateNoMatch    [source completed]
//	StateActive → StateErrored    [predicate failed or source errored]
//	StateActive → StateCancelled  [downstream cancelled]
//
// Every transition leaves StateActive through a single compare-and-swap, so
// exactly one of them ever succeeds. All other states are absorbing.
type State int32

const (
	StateActive State = iota
	StateMatched
	StateNoMatch
	StateErrored
	StateCancelled
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateMatched:
		return "matched"
	case StateNoMatch:
		return "no_match"
	case StateErrored:
		return "errored"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is absorbing.
func (s State) Terminal() bool { return s != StateActive }

func (s State) outcome() string {
	switch s {
	case StateMatched:
		return observability.OutcomeMatched
	case StateNoMatch:
		return observability.OutcomeNoMatch
	case StateErrored:
		return observability.OutcomeErrored
	case StateCancelled:
		return observability.OutcomeCancelled
	default:
		return s.String()
	}
}

type terminalState struct {
	v atomic.Int32
}

func (t *terminalState) load() State { return State(t.v.Load()) }

// transition moves from StateActive to `to`. Only the first caller wins.
func (t *terminalState) transition(to State) bool {
	return t.v.CompareAndSwap(int32(StateActive), int32(to))
}
