package arbor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/aretw0/arbor/internal/dto"
	"github.com/aretw0/arbor/pkg/grammar"
	"github.com/aretw0/arbor/pkg/lsys"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/species"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/aretw0/arbor/pkg/turtle"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultLockTTL bounds how long a replica may hold a build lock.
const DefaultLockTTL = 30 * time.Second

// Engine is the high-level entry point for the arbor library.
// It wraps evolution and turtle construction with caching, metrics and logging.
type Engine struct {
	logger  *slog.Logger
	hooks   lsys.Hooks
	workers int
	symbols int
	cache   ports.TreeCache
	locker  ports.Locker
	lockTTL time.Duration
	metrics *observability.Metrics
	flight  singleflight.Group
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers generation and interpretation hooks.
func WithHooks(hooks lsys.Hooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithWorkers bounds the goroutines used to rewrite long sequences.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithMaxSymbols fails Evolve and Build with lsys.ErrSequenceTooLong once a
// generation holds more than n symbols. Values below 1 mean no bound.
func WithMaxSymbols(n int) Option {
	return func(e *Engine) {
		e.symbols = n
	}
}

// WithCache stores finished trees so identical builds are served without rewriting.
func WithCache(cache ports.TreeCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithLocker serializes concurrent builds of the same key. It only has an
// effect together with WithCache.
func WithLocker(locker ports.Locker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithMetrics records builds and generations in Prometheus collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if eng.lockTTL <= 0 {
		eng.lockTTL = DefaultLockTTL
	}
	return eng
}

// Build is a finished tree and how it was obtained.
type Build struct {
	ID          string
	Species     string
	Fingerprint string
	Iterations  int
	Tree        *tree.Tree[turtle.Node]
	Cached      bool
	Duration    time.Duration
}

// CacheKey identifies a build of sp grown for the given number of iterations.
// It is only meaningful when sp is not Opaque.
func CacheKey(sp *species.Species, iterations int) string {
	return sp.Fingerprint() + ":" + strconv.Itoa(iterations)
}

func (e *Engine) options() []lsys.Option {
	return []lsys.Option{
		lsys.WithLogger(e.logger),
		lsys.WithHooks(e.hooks.Merge(e.metrics.Hooks())),
		lsys.WithWorkers(e.workers),
		lsys.WithMaxSymbols(e.symbols),
	}
}

// Evolve rewrites the species axiom for the given number of generations.
func (e *Engine) Evolve(ctx context.Context, sp *species.Species, iterations int) ([]grammar.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if iterations < 0 {
		return nil, fmt.Errorf("evolve %s: %w", sp.Name, lsys.ErrNegativeIterations)
	}
	seq, err := lsys.EvolveLimit[grammar.Symbol](sp, sp.Axiom(), iterations, e.options()...)
	if err != nil {
		return nil, fmt.Errorf("evolve %s: %w", sp.Name, err)
	}
	return seq, nil
}

// Build grows sp for the given number of iterations and interprets the result
// into a tree. With a cache configured, a stored tree for the same species
// definition and iteration count is returned instead.
func (e *Engine) Build(ctx context.Context, sp *species.Species, iterations int) (*Build, error) {
	start := time.Now()
	b, err := e.build(ctx, sp, iterations)
	if err != nil {
		e.metrics.ObserveError(sp.Name)
		e.logger.Error("build failed", "species", sp.Name, "iterations", iterations, "error", err)
		return nil, err
	}
	b.Duration = time.Since(start)
	e.metrics.ObserveBuild(sp.Name, b.Cached, b.Duration)
	e.logger.Info("tree built",
		"id", b.ID,
		"species", sp.Name,
		"iterations", iterations,
		"nodes", b.Tree.Len(),
		"cached", b.Cached,
		"duration", b.Duration,
	)
	return b, nil
}

func (e *Engine) build(ctx context.Context, sp *species.Species, iterations int) (*Build, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := &Build{
		ID:          uuid.NewString(),
		Species:     sp.Name,
		Fingerprint: sp.Fingerprint(),
		Iterations:  iterations,
	}

	if e.cache == nil || sp.Opaque() {
		if e.cache != nil {
			e.logger.Debug("cache bypassed for species with undescribed closures", "species", sp.Name)
		}
		t, err := e.construct(sp, iterations)
		if err != nil {
			return nil, err
		}
		b.Tree = t
		return b, nil
	}

	key := CacheKey(sp, iterations)
	if t, _, ok := e.lookup(ctx, key); ok {
		b.Tree, b.Cached = t, true
		return b, nil
	}

	// Callers missing the same key in this process share one fill. The fill
	// outlives the caller that started it, bounded by the lock TTL; each
	// caller still gives up when its own context ends.
	leader := false
	ch := e.flight.DoChan(key, func() (any, error) {
		leader = true
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.lockTTL)
		defer cancel()
		return e.fill(fillCtx, sp, key, iterations)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	f := res.Val.(*filled)
	if leader {
		b.Tree, b.Cached = f.tree, f.cached
		return b, nil
	}

	// Followers decode their own copy so no two builds share a tree.
	if f.data != nil {
		if t, err := decodeTree(f.data); err == nil {
			b.Tree, b.Cached = t, true
			return b, nil
		}
	}
	t, err := e.construct(sp, iterations)
	if err != nil {
		return nil, err
	}
	b.Tree = t
	return b, nil
}

// filled is the outcome of a cache fill shared by concurrent callers.
type filled struct {
	tree   *tree.Tree[turtle.Node]
	data   []byte
	cached bool
}

// fill builds the tree for key under the distributed lock, if any, and stores it.
func (e *Engine) fill(ctx context.Context, sp *species.Species, key string, iterations int) (*filled, error) {
	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, key, e.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("lock build %s: %w", sp.Name, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("failed to release build lock", "key", key, "error", err)
			}
		}()

		// Another replica may have finished the same build while we waited.
		if t, data, ok := e.lookup(ctx, key); ok {
			return &filled{tree: t, data: data, cached: true}, nil
		}
	}

	t, err := e.construct(sp, iterations)
	if err != nil {
		return nil, err
	}
	return &filled{tree: t, data: e.store(ctx, key, t)}, nil
}

func (e *Engine) construct(sp *species.Species, iterations int) (*tree.Tree[turtle.Node], error) {
	t, err := turtle.Construct(sp, sp.Root, iterations, e.options()...)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", sp.Name, err)
	}
	return t, nil
}

// lookup treats every cache failure as a miss; the tree can always be rebuilt.
func (e *Engine) lookup(ctx context.Context, key string) (*tree.Tree[turtle.Node], []byte, bool) {
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			e.logger.Warn("tree cache read failed", "key", key, "error", err)
		}
		return nil, nil, false
	}

	t, err := decodeTree(data)
	if err != nil {
		e.logger.Warn("discarding invalid cache entry", "key", key, "error", err)
		return nil, nil, false
	}
	return t, data, true
}

// store writes t to the cache and returns its encoding, or nil if it could not
// be encoded.
func (e *Engine) store(ctx context.Context, key string, t *tree.Tree[turtle.Node]) []byte {
	d, err := dto.FromTree(t)
	if err != nil {
		e.logger.Warn("failed to encode tree", "key", key, "error", err)
		return nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		e.logger.Warn("failed to encode tree", "key", key, "error", err)
		return nil
	}
	if err := e.cache.Put(ctx, key, data); err != nil {
		e.logger.Warn("tree cache write failed", "key", key, "error", err)
	}
	return data
}

func decodeTree(data []byte) (*tree.Tree[turtle.Node], error) {
	var d dto.Tree
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return dto.ToTree(d)
}
