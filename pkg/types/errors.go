package types

import (
	"errors"
	"fmt"
)

var (
	// caller errors, never change handle state
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidName     = fmt.Errorf("%w: lock name must be 1..107 bytes", ErrInvalidArgument)
	ErrInvalidRetries  = fmt.Errorf("%w: retries must be >= 0 or unbounded", ErrInvalidArgument)
	ErrInvalidDelay    = fmt.Errorf("%w: retry delay must be >= 0", ErrInvalidArgument)
	ErrClosed          = fmt.Errorf("%w: handle is closed", ErrInvalidArgument)

	// retries exhausted while the name stayed bound elsewhere
	ErrTimeout = errors.New("timed out waiting to lock")

	// any other registry failure, see UnexpectedError
	ErrUnexpected = errors.New("unexpected error")

	// platform errors
	ErrUnsupportedPlatform = errors.New("platform not supported")
	ErrUnsupportedRuntime  = errors.New("runtime not supported")
)

// UnexpectedError carries the registry failure that ended an operation.
// errors.Is(err, ErrUnexpected) holds and errors.Unwrap returns the cause.
type UnexpectedError struct {
	Op    OpKind
	Name  string
	Cause error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error while %s %q: %v", e.Op.Verb(), e.Name, e.Cause)
}

func (e *UnexpectedError) Is(target error) bool {
	return target == ErrUnexpected
}

func (e *UnexpectedError) Unwrap() error {
	return e.Cause
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func IsUnexpected(err error) bool {
	return errors.Is(err, ErrUnexpected)
}
