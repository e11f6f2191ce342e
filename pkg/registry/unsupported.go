//go:build !linux

package registry

import (
	"fmt"
	"runtime"

	"github.com/pixperk/padlock/pkg/types"
)

var errPlatform = fmt.Errorf("%w: abstract unix sockets need linux, running on %s", types.ErrUnsupportedPlatform, runtime.GOOS)

type unsupportedResource struct{}

// NewResource returns a Resource whose every call fails with ErrUnsupportedPlatform.
func NewResource(opts ...Option) Resource {
	return unsupportedResource{}
}

func (unsupportedResource) Bind(string) error { return errPlatform }
func (unsupportedResource) Release() error    { return nil }

func Bound(string) (bool, error) { return false, errPlatform }
func Owner(string) (int, error)  { return 0, errPlatform }
