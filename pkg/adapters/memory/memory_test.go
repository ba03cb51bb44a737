package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
)

func TestCache_Contract(t *testing.T) {
	tests.TreeCacheContract(t, memory.NewCache())
}

func TestLocker_Contract(t *testing.T) {
	tests.LockerContract(t, memory.NewLocker())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := memory.NewCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i))
			assert.NoError(t, c.Put(ctx, key, []byte(key)))
			_, err := c.Get(ctx, key)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, c.Len())
}

func TestLocker_Serializes(t *testing.T) {
	l := memory.NewLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "tree", time.Second)
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			assert.NoError(t, unlock(ctx))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}
