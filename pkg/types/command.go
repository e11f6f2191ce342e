package types

// kind of operation issued against a handle
type OpKind uint

const (
	OpAcquire OpKind = iota + 1
	OpRelease
)

func (k OpKind) String() string {
	switch k {
	case OpAcquire:
		return "acquire"
	case OpRelease:
		return "release"
	default:
		return "unknown"
	}
}

// present participle used in error messages
func (k OpKind) Verb() string {
	switch k {
	case OpAcquire:
		return "locking"
	case OpRelease:
		return "unlocking"
	default:
		return "operating on"
	}
}

// the state a handle ends up in when an operation of this kind succeeds
func (k OpKind) Target() State {
	if k == OpAcquire {
		return Held
	}
	return Idle
}
