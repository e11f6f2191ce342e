// Package platform refuses to run where abstract unix sockets are unavailable.
package platform

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/hashicorp/go-version"
	"github.com/pixperk/padlock/pkg/types"
)

var (
	// abstract sockets exist since 2.2, SOCK_CLOEXEC on socket(2) since 2.6.27
	MinKernelVersion = version.Must(version.NewVersion("2.6.27"))
	// first release whose net package accepts 108 byte abstract addresses
	MinGoVersion = version.Must(version.NewVersion("1.21"))
)

var (
	checkOnce sync.Once
	checkErr  error
)

// Check validates the host once per process and returns the cached result.
func Check() error {
	checkOnce.Do(func() {
		checkErr = check(runtime.GOOS, kernelRelease, runtime.Version())
	})
	return checkErr
}

func check(goos string, kernel func() (string, error), goVersion string) error {
	if goos != "linux" {
		return fmt.Errorf("%w: %s", types.ErrUnsupportedPlatform, goos)
	}

	release, err := kernel()
	if err != nil {
		return fmt.Errorf("%w: reading kernel release: %v", types.ErrUnsupportedPlatform, err)
	}
	kv, err := parseLoose(release)
	if err != nil {
		return fmt.Errorf("%w: kernel release %q: %v", types.ErrUnsupportedPlatform, release, err)
	}
	if kv.LessThan(MinKernelVersion) {
		return fmt.Errorf("%w: kernel %s, need >= %s", types.ErrUnsupportedPlatform, kv, MinKernelVersion)
	}

	//devel toolchains carry no release number, trust them
	if !strings.HasPrefix(goVersion, "go") {
		return nil
	}
	gv, err := parseLoose(strings.TrimPrefix(goVersion, "go"))
	if err != nil {
		return fmt.Errorf("%w: go version %q: %v", types.ErrUnsupportedRuntime, goVersion, err)
	}
	if gv.LessThan(MinGoVersion) {
		return fmt.Errorf("%w: go %s, need >= %s", types.ErrUnsupportedRuntime, gv, MinGoVersion)
	}

	return nil
}

// parseLoose keeps the leading dotted numbers of a release string,
// "6.8.0-45-generic" and "1.24rc1" both parse.
func parseLoose(s string) (*version.Version, error) {
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	return version.NewVersion(strings.TrimRight(s[:end], "."))
}
