package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TreeCacheContract is a reusable test suite that verifies if an adapter complies with ports.TreeCache.
func TreeCacheContract(t *testing.T, cache ports.TreeCache) {
	t.Helper()
	ctx := context.Background()
	key := fmt.Sprintf("contract-%d", time.Now().UnixNano())

	t.Run("Get_Miss", func(t *testing.T) {
		_, err := cache.Get(ctx, key+"-missing")
		assert.ErrorIs(t, err, ports.ErrCacheMiss)
	})

	t.Run("Put_Get", func(t *testing.T) {
		data := []byte(`{"nodes":[]}`)
		require.NoError(t, cache.Put(ctx, key, data))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, data, got)

		// The cache keeps its own copy.
		data[0] = 'X'
		got, err = cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, byte('{'), got[0])
	})

	t.Run("Put_Replaces", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, []byte("v1")))
		require.NoError(t, cache.Put(ctx, key, []byte("v2")))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, []byte("v")))
		require.NoError(t, cache.Delete(ctx, key))

		_, err := cache.Get(ctx, key)
		assert.ErrorIs(t, err, ports.ErrCacheMiss)

		assert.NoError(t, cache.Delete(ctx, key), "deleting a missing key")
	})
}

// LockerContract verifies mutual exclusion and release for a ports.Locker.
func LockerContract(t *testing.T, locker ports.Locker) {
	t.Helper()
	ctx := context.Background()
	key := fmt.Sprintf("contract-lock-%d", time.Now().UnixNano())

	t.Run("Lock_Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, unlock)
		require.NoError(t, unlock(ctx))

		// The key can be taken again after release.
		unlock, err = locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	})

	t.Run("Contention", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, key, 5*time.Second)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		require.NoError(t, unlock(ctx))
	})

	t.Run("Independent_Keys", func(t *testing.T) {
		a, err := locker.Lock(ctx, key+"-a", 5*time.Second)
		require.NoError(t, err)
		defer func() { _ = a(ctx) }()

		waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		b, err := locker.Lock(waitCtx, key+"-b", 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, b(ctx))
	})
}
