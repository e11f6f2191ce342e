package fsm

import (
	"errors"
	"fmt"

	"github.com/pixperk/padlock/pkg/types"
)

// transition table of a lock handle
// critical :
// - a handle never binds while a release is pending, nor releases while a bind is pending
// - calls overlapping a pending operation settle strictly after it, in issuance order
// - a failed release leaves the handle Held, a failed acquire leaves it Idle
//
// the handle owns the mutex, the functions here only decide

var ErrInvalidTransition = errors.New("invalid state transition")

// what a freshly issued call does
type Admission uint

const (
	// already in the target state, succeed without touching the registry
	Resolve Admission = iota + 1
	// the pending operation already leads to the target state, share its result
	Join
	// nothing pending, start now
	Start
	// chain behind the pending operation and re-issue once it settles
	Queue
)

func (a Admission) String() string {
	switch a {
	case Resolve:
		return "resolve"
	case Join:
		return "join"
	case Start:
		return "start"
	case Queue:
		return "queue"
	default:
		return "unknown"
	}
}

// handle bookkeeping seen by Admit
type Snapshot struct {
	State   types.State // current state
	Pending bool        // last issued operation has not settled yet
	Intent  types.State // state the last issued operation leads to
}

// decides how a new call of kind op is admitted
func Admit(s Snapshot, op types.OpKind) (Admission, error) {
	if op != types.OpAcquire && op != types.OpRelease {
		return 0, fmt.Errorf("%w: unknown operation %d", ErrInvalidTransition, op)
	}
	target := op.Target()

	if s.Pending {
		if s.Intent == target {
			return Join, nil
		}
		return Queue, nil
	}

	//nothing pending means no registry call can be in flight
	if s.State.InFlight() {
		return 0, fmt.Errorf("%w: %s with nothing pending", ErrInvalidTransition, s.State)
	}

	if s.State == target {
		return Resolve, nil
	}
	return Start, nil
}

// state entered when an admitted operation begins against the real state
// run is false when the handle already sits in the target state,
// which happens when a queued call finds its predecessor did the work or failed
func Begin(state types.State, op types.OpKind) (next types.State, run bool, err error) {
	switch op {
	case types.OpAcquire:
		switch state {
		case types.Idle:
			return types.Acquiring, true, nil
		case types.Held:
			return types.Held, false, nil
		}
	case types.OpRelease:
		switch state {
		case types.Held:
			return types.Releasing, true, nil
		case types.Idle:
			return types.Idle, false, nil
		}
	}
	return state, false, fmt.Errorf("%w: cannot begin %s from %s", ErrInvalidTransition, op, state)
}

// state entered when the in-flight registry call completes
func Settle(state types.State, ok bool) (types.State, error) {
	switch state {
	case types.Acquiring:
		if ok {
			return types.Held, nil
		}
		return types.Idle, nil
	case types.Releasing:
		if ok {
			return types.Idle, nil
		}
		return types.Held, nil
	default:
		return state, fmt.Errorf("%w: nothing in flight in %s", ErrInvalidTransition, state)
	}
}
