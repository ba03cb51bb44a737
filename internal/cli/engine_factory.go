package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/adapters/file"
	"github.com/aretw0/arbor/internal/adapters/redis"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// createEngine initializes an arbor engine with standard CLI conventions.
// The returned func releases cache connections.
func createEngine(opts RunOptions, logger *slog.Logger) (*arbor.Engine, func(), error) {
	engineOpts := []arbor.Option{
		arbor.WithLogger(logger),
		arbor.WithWorkers(opts.Workers),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, arbor.WithHooks(createDebugHooks(logger)))
	}

	cache, locker, closer, err := OpenCache(opts.Cache)
	if err != nil {
		return nil, nil, err
	}
	if cache != nil {
		engineOpts = append(engineOpts, arbor.WithCache(cache))
	}
	if locker != nil {
		engineOpts = append(engineOpts, arbor.WithLocker(locker, arbor.DefaultLockTTL))
	}

	return arbor.New(engineOpts...), closer, nil
}

// OpenCache selects a tree cache from a flag value:
// "" disables caching, "memory" keeps trees in process, a redis:// or
// rediss:// URL shares them through Redis (with a distributed build lock),
// and anything else is a cache directory.
func OpenCache(spec string) (ports.TreeCache, ports.Locker, func(), error) {
	noop := func() {}
	switch {
	case spec == "":
		return nil, nil, noop, nil
	case spec == "memory":
		return memory.NewCache(), memory.NewLocker(), noop, nil
	case strings.HasPrefix(spec, "redis://"), strings.HasPrefix(spec, "rediss://"):
		redisOpts, err := backend.ParseURL(spec)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := backend.NewClient(redisOpts)
		closer := func() { _ = client.Close() }
		return redis.NewFromClient(client), redis.NewLocker(client, ""), closer, nil
	default:
		return file.New(spec), nil, noop, nil
	}
}
