package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SessionLocks serializes work on a session within one process. The zero
// value is ready to use.
type SessionLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sessionLock
}

type sessionLock struct {
	held chan struct{}
	refs int
}

// Lock blocks until the caller holds id's lock or ctx ends. The returned
// func releases the lock and is safe to call more than once.
func (l *SessionLocks) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[uuid.UUID]*sessionLock)
	}
	sl, ok := l.locks[id]
	if !ok {
		sl = &sessionLock{held: make(chan struct{}, 1)}
		l.locks[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	select {
	case sl.held <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-sl.held
				l.forget(id, sl)
			})
		}, nil
	case <-ctx.Done():
		l.forget(id, sl)
		return nil, fmt.Errorf("%w: %w", ErrSessionBusy, ctx.Err())
	}
}

// forget drops a waiter's reference; the entry goes when nobody holds or
// waits on it.
func (l *SessionLocks) forget(id uuid.UUID, sl *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(l.locks, id)
	}
}
