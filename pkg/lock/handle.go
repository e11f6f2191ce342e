// Package lock provides a named lock shared between processes on one host.
//
// A Handle claims its name by binding an abstract unix socket. The kernel
// allows one binding per name and drops it when the holder exits, so a crashed
// holder never leaves a stale lock behind.
//
// Lock and Unlock may be called from several goroutines on the same Handle.
// Overlapping calls are serialized: a Lock issued while an Unlock is pending
// waits for it, an Unlock issued while a Lock is pending waits for that, and a
// call that asks for the state the pending operation already leads to shares
// its result. Among different handles, even in one process, the kernel alone
// decides who wins a freed name.
//
//	h, err := lock.New("my-job")
//	if err != nil {
//		return err
//	}
//	if err := h.Lock(lock.WithRetries(10)); err != nil {
//		return err
//	}
//	defer h.Unlock()
package lock

import (
	"fmt"
	"sync"
	"time"

	"github.com/pixperk/padlock/pkg/fsm"
	"github.com/pixperk/padlock/pkg/metrics"
	"github.com/pixperk/padlock/pkg/platform"
	"github.com/pixperk/padlock/pkg/registry"
	ptime "github.com/pixperk/padlock/pkg/time"
	"github.com/pixperk/padlock/pkg/types"
	"go.uber.org/zap"
)

// Handle is one contender for a named lock.
type Handle struct {
	name        string
	logger      *zap.Logger
	newResource registry.Factory
	clock       *ptime.Clock

	mu       sync.Mutex
	state    types.State
	resource registry.Resource // created on first acquire, reused afterwards
	tail     *Pending          // last issued operation
	intent   types.State       // state tail leads to
	closed   bool

	attempts  int
	heldSince time.Duration
}

// Status is a point-in-time view of a Handle.
type Status struct {
	Name     string
	State    types.State
	Attempts int           // bind attempts made by the last acquire
	HeldFor  time.Duration // zero unless State is Held
}

// New returns an idle Handle for name, which must be 1 to 107 bytes long.
func New(name string, opts ...Option) (*Handle, error) {
	if err := platform.Check(); err != nil {
		return nil, err
	}
	if err := registry.ValidateName(name); err != nil {
		return nil, err
	}

	h := &Handle{
		name:        name,
		logger:      zap.NewNop(),
		newResource: registry.NewResource,
		clock:       ptime.NewClock(),
		state:       types.Idle,
		intent:      types.Idle,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(zap.String("lock", name))

	return h, nil
}

func (h *Handle) Name() string {
	return h.name
}

func (h *Handle) State() types.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Status{Name: h.name, State: h.state, Attempts: h.attempts}
	if h.state == types.Held {
		s.HeldFor = h.clock.Since(h.heldSince)
	}
	return s
}

// Lock acquires the name and blocks until the attempt settles.
func (h *Handle) Lock(opts ...AcquireOption) error {
	p, err := h.LockAsync(opts...)
	if err != nil {
		return err
	}
	return p.Wait()
}

// LockAsync issues an acquire and returns without waiting for it.
// Invalid options fail here, before anything is issued.
func (h *Handle) LockAsync(opts ...AcquireOption) (*Pending, error) {
	cfg, err := newAcquireConfig(opts)
	if err != nil {
		return nil, err
	}
	return h.issue(types.OpAcquire, cfg)
}

// Unlock releases the name and blocks until the release settles.
// Unlocking a handle that holds nothing succeeds.
func (h *Handle) Unlock() error {
	return h.UnlockAsync().Wait()
}

// UnlockAsync issues a release and returns without waiting for it.
func (h *Handle) UnlockAsync() *Pending {
	p, err := h.issue(types.OpRelease, acquireConfig{})
	if err != nil {
		return settled(types.OpRelease, err)
	}
	return p
}

// Close releases the name if held. Later Lock calls fail with ErrClosed.
func (h *Handle) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	return h.Unlock()
}

// issue admits a new call against the handle's bookkeeping
func (h *Handle) issue(op types.OpKind, cfg acquireConfig) (*Pending, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed && op == types.OpAcquire {
		return nil, types.ErrClosed
	}

	snap := fsm.Snapshot{
		State:   h.state,
		Pending: h.tail != nil && !h.tail.isSettled(),
		Intent:  h.intent,
	}
	adm, err := fsm.Admit(snap, op)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("issued", zap.Stringer("op", op), zap.Stringer("admission", adm), zap.Stringer("state", h.state))

	switch adm {
	case fsm.Resolve:
		return settled(op, nil), nil
	case fsm.Join:
		return h.tail, nil
	}

	var prev *Pending
	if adm == fsm.Queue {
		prev = h.tail
	}

	p := newPending(op)
	h.tail = p
	h.intent = op.Target()
	go h.run(p, prev, cfg)

	return p, nil
}

// run waits for the predecessor, then re-issues op against the real state
func (h *Handle) run(p, prev *Pending, cfg acquireConfig) {
	if prev != nil {
		//the predecessor's outcome is its callers' business
		<-prev.Done()
	}

	var err error
	switch p.op {
	case types.OpAcquire:
		err = h.acquire(cfg)
	case types.OpRelease:
		err = h.release()
	}
	p.settle(err)
}

func (h *Handle) acquire(cfg acquireConfig) error {
	h.mu.Lock()
	next, run, err := fsm.Begin(h.state, types.OpAcquire)
	if err != nil || !run {
		h.mu.Unlock()
		return err
	}
	h.state = next
	if h.resource == nil {
		h.resource = h.newResource(registry.WithErrorObserver(h.observe))
	}
	res := h.resource
	h.mu.Unlock()

	start := h.clock.Elapsed()
	attempts, err := h.bindLoop(res, cfg)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.state, _ = fsm.Settle(h.state, err == nil)
	h.attempts = attempts

	switch {
	case err == nil:
		h.heldSince = h.clock.Elapsed()
		metrics.LockAcquireDuration.WithLabelValues(h.name).Observe(h.clock.Since(start).Seconds())
		metrics.LockAcquireTotal.WithLabelValues(h.name, metrics.StatusSuccess).Inc()
		metrics.LocksHeld.Inc()
		h.logger.Debug("locked", zap.Int("attempts", attempts))
	case types.IsTimeout(err):
		metrics.LockAcquireTotal.WithLabelValues(h.name, metrics.StatusTimeout).Inc()
		h.logger.Debug("timed out waiting to lock", zap.Int("attempts", attempts))
	default:
		metrics.LockAcquireTotal.WithLabelValues(h.name, metrics.StatusUnexpected).Inc()
		h.logger.Warn("lock failed", zap.Int("attempts", attempts), zap.Error(err))
	}

	return err
}

// bindLoop returns the number of bind attempts made
func (h *Handle) bindLoop(res registry.Resource, cfg acquireConfig) (int, error) {
	for failures := 0; ; failures++ {
		err := res.Bind(h.name)
		if err == nil {
			metrics.BindAttemptsTotal.WithLabelValues(h.name, metrics.BindBound).Inc()
			return failures + 1, nil
		}

		if !registry.IsNameInUse(err) {
			metrics.BindAttemptsTotal.WithLabelValues(h.name, metrics.BindError).Inc()
			return failures + 1, &types.UnexpectedError{Op: types.OpAcquire, Name: h.name, Cause: err}
		}
		metrics.BindAttemptsTotal.WithLabelValues(h.name, metrics.BindInUse).Inc()

		if cfg.exhausted(failures) {
			return failures + 1, fmt.Errorf("%w: %q still in use after %d attempts", types.ErrTimeout, h.name, failures+1)
		}

		h.logger.Debug("name in use, retrying", zap.Int("attempt", failures+1), zap.Duration("delay", cfg.delay))
		if cfg.delay > 0 {
			t := time.NewTimer(cfg.delay)
			<-t.C
		}
	}
}

func (h *Handle) release() error {
	h.mu.Lock()
	next, run, err := fsm.Begin(h.state, types.OpRelease)
	if err != nil || !run {
		h.mu.Unlock()
		return err
	}
	h.state = next
	res := h.resource
	h.mu.Unlock()

	relErr := res.Release()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.state, _ = fsm.Settle(h.state, relErr == nil)
	if relErr != nil {
		metrics.LockReleaseTotal.WithLabelValues(h.name, metrics.StatusUnexpected).Inc()
		h.logger.Warn("unlock failed, lock still held", zap.Error(relErr))
		return &types.UnexpectedError{Op: types.OpRelease, Name: h.name, Cause: relErr}
	}

	metrics.LockReleaseTotal.WithLabelValues(h.name, metrics.StatusSuccess).Inc()
	metrics.LocksHeld.Dec()
	h.logger.Debug("unlocked", zap.Duration("held_for", h.clock.Since(h.heldSince)))
	return nil
}

// observe swallows errors the socket raises while no operation is listening
func (h *Handle) observe(err error) {
	h.logger.Debug("ignoring socket error outside an operation", zap.Error(err))
}
