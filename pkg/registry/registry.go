// Package registry binds names in the linux abstract unix socket namespace.
//
// A name bound by one socket cannot be bound by another until the first is
// closed. The kernel drops the binding when the owning process exits, so a
// crashed holder never leaves a stale lock behind.
package registry

import (
	"errors"
	"fmt"

	"github.com/pixperk/padlock/pkg/types"
)

// MaxNameLength is sun_path (108 bytes) minus the leading NUL of an abstract address.
const MaxNameLength = 107

var (
	// the name is bound by another live socket
	ErrNameInUse = errors.New("name already in use")
	// nobody listens on the name
	ErrNotBound = errors.New("name not bound")
	// Bind called on a resource that already holds a binding
	ErrAlreadyBound = errors.New("resource already bound")
)

// Resource is one claim on the abstract namespace.
// It is created once per handle and reused across bind/release cycles.
type Resource interface {
	// Bind claims name. A name held elsewhere yields an error matching ErrNameInUse.
	Bind(name string) error
	// Release drops the current binding. Releasing an unbound resource is a no-op.
	Release() error
}

// Factory builds a Resource.
type Factory func(opts ...Option) Resource

type options struct {
	observer func(error)
}

// Option configures a Resource.
type Option func(*options)

// WithErrorObserver receives errors raised while the resource sits bound with
// no operation waiting on it, such as accept failures. The default drops them.
func WithErrorObserver(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.observer = fn
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{observer: func(error) {}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ValidateName checks the byte length of an abstract name.
func ValidateName(name string) error {
	if n := len(name); n == 0 || n > MaxNameLength {
		return fmt.Errorf("%w, received %d bytes", types.ErrInvalidName, n)
	}
	return nil
}

// IsNameInUse reports whether err is the expected, retryable bind failure.
func IsNameInUse(err error) bool {
	return errors.Is(err, ErrNameInUse)
}
