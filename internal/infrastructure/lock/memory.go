// Package lock provides keyed mutual exclusion for timer and frame writes.
// MemoryLocker serves a single instance; RedisLocker spans instances.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/frameshop/backend/internal/domain/shared"
)

type keyLock struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker holds one reference-counted lock per key. Entries are removed
// once no holder or waiter references them.
type MemoryLocker struct {
	mu          sync.Mutex
	locks       map[string]*keyLock
	waitTimeout time.Duration
}

// NewMemoryLocker creates an in-process locker. A zero waitTimeout waits
// until ctx is done.
func NewMemoryLocker(waitTimeout time.Duration) *MemoryLocker {
	return &MemoryLocker{
		locks:       make(map[string]*keyLock),
		waitTimeout: waitTimeout,
	}
}

// Lock blocks until key is free, ctx is done or the wait timeout passes.
// The returned unlock is safe to call more than once.
func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	waitCtx, cancel := withWaitTimeout(ctx, l.waitTimeout)
	defer cancel()

	select {
	case kl.ch <- struct{}{}:
	case <-waitCtx.Done():
		l.release(key, kl)
		return nil, waitError(ctx, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(key, kl)
		})
	}, nil
}

func (l *MemoryLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// Len returns the number of keys currently held or awaited
func (l *MemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func withWaitTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// waitError distinguishes a caller cancellation from a lock that stayed busy
func waitError(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	return shared.NewConflictError("%s is busy, retry shortly", key)
}
