package types

// state of a lock handle
// exactly one at a time, Idle is the zero value
type State uint

const (
	Idle State = iota
	Acquiring
	Held
	Releasing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Acquiring:
		return "acquiring"
	case Held:
		return "held"
	case Releasing:
		return "releasing"
	default:
		return "unknown"
	}
}

// true while a registry call is in flight
func (s State) InFlight() bool {
	return s == Acquiring || s == Releasing
}
