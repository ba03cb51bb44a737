package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/ports"
)

// Locker implements ports.Locker within a single process.
// Locks never expire; the ttl argument is ignored.
type Locker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]chan struct{})}
}

// Lock waits until key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	for {
		l.mu.Lock()
		held, busy := l.locks[key]
		if !busy {
			mine := make(chan struct{})
			l.locks[key] = mine
			l.mu.Unlock()
			return l.release(key, mine), nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-held:
		}
	}
}

func (l *Locker) release(key string, mine chan struct{}) ports.UnlockFunc {
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.locks[key] == mine {
				delete(l.locks, key)
			}
			close(mine)
		})
		return nil
	}
}
