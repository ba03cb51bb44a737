package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock.
type UnlockFunc func(ctx context.Context) error

// Locker provides mutual exclusion per key.
type Locker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// The lock expires after ttl if the holder never releases it (implementation specific).
	// The returned UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
