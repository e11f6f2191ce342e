//go:build linux

package registry

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// kernel listing of unix sockets, abstract names are shown with a leading '@'
var procNetUnix = "/proc/net/unix"

// Bound reports whether any process has name bound.
func Bound(name string) (bool, error) {
	f, err := os.Open(procNetUnix)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", procNetUnix, err)
	}
	defer f.Close()

	suffix := "@" + name
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasSuffix(line, suffix) {
			continue
		}
		//path is the last column, make sure we matched all of it
		rest := strings.TrimSuffix(line, suffix)
		if strings.HasSuffix(rest, " ") || strings.HasSuffix(rest, "\t") {
			return true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("read %s: %w", procNetUnix, err)
	}
	return false, nil
}

// Owner returns the PID of the process listening on name.
// The kernel reports the listener's credentials to the connecting side.
func Owner(name string) (int, error) {
	conn, err := net.DialUnix("unix", nil, abstractAddr(name))
	if err != nil {
		if errors.Is(err, unix.ECONNREFUSED) || errors.Is(err, unix.ENOENT) {
			return 0, fmt.Errorf("owner of @%s: %w", name, ErrNotBound)
		}
		return 0, fmt.Errorf("owner of @%s: %w", name, err)
	}
	defer conn.Close()

	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("owner of @%s: %w", name, err)
	}

	var cred *unix.Ucred
	var credErr error
	if err := raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return 0, fmt.Errorf("owner of @%s: %w", name, err)
	}
	if credErr != nil {
		return 0, fmt.Errorf("owner of @%s: peer credentials: %w", name, credErr)
	}

	return int(cred.Pid), nil
}
