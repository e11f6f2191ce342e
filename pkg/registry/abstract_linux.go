//go:build linux

package registry

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const maxAcceptBackoff = time.Second

// abstractResource owns at most one listener bound to @name
type abstractResource struct {
	opts options

	mu       sync.Mutex
	name     string
	listener *net.UnixListener
	drained  chan struct{}
}

// NewResource returns a Resource backed by an abstract unix socket.
func NewResource(opts ...Option) Resource {
	return &abstractResource{opts: buildOptions(opts)}
}

func abstractAddr(name string) *net.UnixAddr {
	// the runtime turns a leading '@' into the NUL of an abstract address
	return &net.UnixAddr{Name: "@" + name, Net: "unix"}
}

func (r *abstractResource) Bind(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listener != nil {
		return fmt.Errorf("bind @%s: %w (holding @%s)", name, ErrAlreadyBound, r.name)
	}

	ln, err := net.ListenUnix("unix", abstractAddr(name))
	if err != nil {
		if errors.Is(err, unix.EADDRINUSE) {
			return fmt.Errorf("bind @%s: %w: %w", name, ErrNameInUse, err)
		}
		return fmt.Errorf("bind @%s: %w", name, err)
	}

	r.name = name
	r.listener = ln
	r.drained = make(chan struct{})
	go r.drain(ln, r.drained)

	return nil
}

func (r *abstractResource) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listener == nil {
		return nil
	}

	if err := r.listener.Close(); err != nil {
		//binding state unknown, keep treating it as held
		return fmt.Errorf("release @%s: %w", r.name, err)
	}
	<-r.drained

	r.listener = nil
	r.drained = nil
	return nil
}

// drain accepts and immediately closes connections from probes such as Owner.
// accept failures go to the observer, the loop ends when the listener closes
func (r *abstractResource) drain(ln *net.UnixListener, done chan struct{}) {
	defer close(done)

	var backoff time.Duration
	for {
		conn, err := ln.AcceptUnix()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.opts.observer(err)

			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff *= 2
			}
			if backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			time.Sleep(backoff)
			continue
		}
		backoff = 0
		_ = conn.Close()
	}
}
