// internal/lock/memory.go
package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is an in-process RoomLocker with the same token and TTL
// semantics as the Redis implementation. Suitable for single-process
// deployments and tests.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]lease

	// now is injectable for TTL tests.
	now func() time.Time
}

type lease struct {
	token     string
	expiresAt time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		leases: make(map[string]lease),
		now:    time.Now,
	}
}

func (l *MemoryLocker) Acquire(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.leases[key]; ok && l.now().Before(cur.expiresAt) {
		return false, nil
	}
	l.leases[key] = lease{token: token, expiresAt: l.now().Add(ttl)}
	return true, nil
}

func (l *MemoryLocker) Release(_ context.Context, key, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.leases[key]
	if !ok || cur.token != token || !l.now().Before(cur.expiresAt) {
		return false, nil
	}
	delete(l.leases, key)
	return true, nil
}
