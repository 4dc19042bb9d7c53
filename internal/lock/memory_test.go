// internal/lock/memory_test.go
package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerAcquireRelease(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "room:1", "t1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Held lease refuses a second owner, even with a different token.
	ok, err = l.Acquire(ctx, "room:1", "t2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// A different key is independent.
	ok, err = l.Acquire(ctx, "room:2", "t2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	released, err := l.Release(ctx, "room:1", "t1")
	require.NoError(t, err)
	assert.True(t, released)

	ok, err = l.Acquire(ctx, "room:1", "t2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released lease is free for the next owner")
}

func TestMemoryLockerReleaseWrongToken(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "room:1", "t1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := l.Release(ctx, "room:1", "t2")
	require.NoError(t, err)
	assert.False(t, released, "only the owning token can release")

	// The original owner still holds it.
	ok, err = l.Acquire(ctx, "room:1", "t3", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLockerTTLExpiry(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	now := time.Now()
	l.now = func() time.Time { return now }

	ok, err := l.Acquire(ctx, "room:1", "t1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// Lease expires; a new owner can take it.
	now = now.Add(2 * time.Second)
	ok, err = l.Acquire(ctx, "room:1", "t2", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// The stale first owner must not be able to release the new lease.
	released, err := l.Release(ctx, "room:1", "t1")
	require.NoError(t, err)
	assert.False(t, released)

	released, err = l.Release(ctx, "room:1", "t2")
	require.NoError(t, err)
	assert.True(t, released)
}
