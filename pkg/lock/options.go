package lock

import (
	"time"

	"github.com/pixperk/padlock/pkg/registry"
	"github.com/pixperk/padlock/pkg/types"
	"go.uber.org/zap"
)

const (
	// keep retrying until the name frees up
	Unbounded = -1

	DefaultRetries    = Unbounded
	DefaultRetryDelay = 250 * time.Millisecond
)

type acquireConfig struct {
	retries int
	delay   time.Duration
}

// AcquireOption tunes a single Lock call.
type AcquireOption func(*acquireConfig)

// WithRetries sets how many extra bind attempts follow a name-in-use failure.
// Zero means exactly one attempt, Unbounded retries forever.
func WithRetries(n int) AcquireOption {
	return func(c *acquireConfig) { c.retries = n }
}

// WithRetryDelay sets the pause between bind attempts.
func WithRetryDelay(d time.Duration) AcquireOption {
	return func(c *acquireConfig) { c.delay = d }
}

func newAcquireConfig(opts []AcquireOption) (acquireConfig, error) {
	c := acquireConfig{retries: DefaultRetries, delay: DefaultRetryDelay}
	for _, opt := range opts {
		opt(&c)
	}

	if c.retries < 0 && c.retries != Unbounded {
		return c, types.ErrInvalidRetries
	}
	if c.delay < 0 {
		return c, types.ErrInvalidDelay
	}
	return c, nil
}

func (c acquireConfig) exhausted(failures int) bool {
	return c.retries != Unbounded && failures >= c.retries
}

// Option configures a Handle.
type Option func(*Handle)

// WithLogger sets the logger, the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handle) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithResourceFactory replaces the abstract socket registry.
func WithResourceFactory(f registry.Factory) Option {
	return func(h *Handle) {
		if f != nil {
			h.newResource = f
		}
	}
}
