// internal/lock/lock.go
package lock

import (
	"context"
	"time"
)

// RoomLocker is a lease-based mutual exclusion primitive used to serialize
// bot admissions across coordinator processes. A lease is owned by whoever
// holds the token currently stored under the key; release only succeeds for
// the owning token, so a caller whose lease expired and was re-acquired by
// someone else can never delete the new owner's lease.
type RoomLocker interface {
	// Acquire takes the lease if it is free, storing the caller's token
	// with the given TTL. Returns false without blocking when the lease is
	// held by someone else.
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	// Release deletes the lease only if the stored value still matches the
	// caller's token. Returns whether the lease was actually released.
	Release(ctx context.Context, key, token string) (bool, error)
}
