//go:build linux

package lock

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pixperk/padlock/pkg/registry"
	"github.com/pixperk/padlock/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateLockName() string {
	return "padlock-test-" + uuid.NewString()
}

func lockExists(t *testing.T, name string) bool {
	t.Helper()
	bound, err := registry.Bound(name)
	require.NoError(t, err)
	return bound
}

func newSocketHandle(t *testing.T, name string) *Handle {
	t.Helper()
	h, err := New(name)
	require.NoError(t, err)
	return h
}

func TestSocketLockUnlock(t *testing.T) {
	h := newSocketHandle(t, generateLockName())

	require.NoError(t, h.Lock())
	assert.True(t, lockExists(t, h.Name()))

	pid, err := registry.Owner(h.Name())
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, h.Unlock())
	assert.False(t, lockExists(t, h.Name()))
}

func TestSocketLockUnlockLockUnlock(t *testing.T) {
	h := newSocketHandle(t, generateLockName())

	_, err := h.LockAsync()
	require.NoError(t, err)
	h.UnlockAsync()
	_, err = h.LockAsync()
	require.NoError(t, err)
	require.NoError(t, h.Unlock())

	assert.False(t, lockExists(t, h.Name()))
}

func TestSocketLockUnlockLock(t *testing.T) {
	h := newSocketHandle(t, generateLockName())

	_, err := h.LockAsync()
	require.NoError(t, err)
	h.UnlockAsync()
	require.NoError(t, h.Lock())

	assert.True(t, lockExists(t, h.Name()))
	require.NoError(t, h.Unlock())
}

func TestSocketLockTwice(t *testing.T) {
	h := newSocketHandle(t, generateLockName())

	require.NoError(t, h.Lock())
	require.NoError(t, h.Lock())
	assert.True(t, lockExists(t, h.Name()))

	require.NoError(t, h.Unlock())
	assert.False(t, lockExists(t, h.Name()))
}

func TestSocketUnlockTwice(t *testing.T) {
	h := newSocketHandle(t, generateLockName())

	require.NoError(t, h.Lock())
	require.NoError(t, h.Unlock())
	assert.False(t, lockExists(t, h.Name()))
	require.NoError(t, h.Unlock())
	assert.False(t, lockExists(t, h.Name()))
}

func TestSocketUnlockWithoutLock(t *testing.T) {
	h := newSocketHandle(t, generateLockName())

	require.NoError(t, h.Unlock())
	assert.False(t, lockExists(t, h.Name()))
}

func TestSocketWaitForHolder(t *testing.T) {
	name := generateLockName()
	first := newSocketHandle(t, name)
	second := newSocketHandle(t, name)

	require.NoError(t, first.Lock())
	time.AfterFunc(100*time.Millisecond, func() { _ = first.Unlock() })

	require.NoError(t, second.Lock(WithRetryDelay(10*time.Millisecond)))
	assert.True(t, lockExists(t, name))
	require.NoError(t, second.Unlock())
}

func TestSocketZeroRetriesRejected(t *testing.T) {
	name := generateLockName()
	first := newSocketHandle(t, name)
	second := newSocketHandle(t, name)

	require.NoError(t, first.Lock())

	unlocked := make(chan error, 1)
	time.AfterFunc(100*time.Millisecond, func() { unlocked <- first.Unlock() })

	err := second.Lock(WithRetries(0))
	assert.ErrorIs(t, err, types.ErrTimeout)

	require.NoError(t, <-unlocked)
	assert.False(t, lockExists(t, name))
}
