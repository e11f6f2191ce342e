package lock

import "github.com/pixperk/padlock/pkg/types"

// Pending is the settlement of one issued Lock or Unlock.
// Several calls may share one Pending when they overlap an operation
// that already leads to the state they asked for.
type Pending struct {
	op   types.OpKind
	done chan struct{}
	err  error
}

func newPending(op types.OpKind) *Pending {
	return &Pending{op: op, done: make(chan struct{})}
}

func settled(op types.OpKind, err error) *Pending {
	p := newPending(op)
	p.settle(err)
	return p
}

func (p *Pending) settle(err error) {
	p.err = err
	close(p.done)
}

func (p *Pending) isSettled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Op is the kind of operation this settlement belongs to.
func (p *Pending) Op() types.OpKind {
	return p.op
}

// Done is closed once the operation settles.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the operation settles and returns its outcome.
func (p *Pending) Wait() error {
	<-p.done
	return p.err
}

// Err returns the outcome, or nil while the operation is still running.
func (p *Pending) Err() error {
	if !p.isSettled() {
		return nil
	}
	return p.err
}
