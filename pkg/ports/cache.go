package ports

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by TreeCache.Get when nothing is stored under the key.
var ErrCacheMiss = errors.New("tree cache miss")

// TreeCache stores encoded trees keyed by build key.
type TreeCache interface {
	// Get returns the data stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
