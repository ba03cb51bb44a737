package arbor_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/grammar"
	"github.com/aretw0/arbor/pkg/lsys"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/species"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/aretw0/arbor/pkg/turtle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func honda(t *testing.T) *species.Species {
	t.Helper()
	sp, err := species.Lookup("honda")
	require.NoError(t, err)
	return sp
}

func edges(t *tree.Tree[turtle.Node]) []tree.Edge[turtle.Node] {
	var out []tree.Edge[turtle.Node]
	for e := range t.Edges() {
		out = append(out, e)
	}
	return out
}

func TestEngine_Build(t *testing.T) {
	sp := honda(t)
	b, err := arbor.New().Build(context.Background(), sp, 4)
	require.NoError(t, err)

	assert.Equal(t, 16, b.Tree.Len())
	assert.Equal(t, "honda", b.Species)
	assert.Equal(t, 4, b.Iterations)
	assert.Equal(t, sp.Fingerprint(), b.Fingerprint)
	assert.False(t, b.Cached)
	assert.NotEmpty(t, b.ID)
}

func TestEngine_BuildCached(t *testing.T) {
	sp := honda(t)
	cache := memory.NewCache()
	eng := arbor.New(arbor.WithCache(cache))
	ctx := context.Background()

	first, err := eng.Build(ctx, sp, 4)
	require.NoError(t, err)
	second, err := eng.Build(ctx, sp, 4)
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, edges(first.Tree), edges(second.Tree))

	_, err = eng.Build(ctx, sp, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}

// scaledWeed grows one segment of length 10*k from A(10) with a closure rule.
func scaledWeed(t *testing.T, k float64, describe bool) *species.Species {
	t.Helper()
	alphabet, err := turtle.Alphabet.Merge(grammar.Alphabet{"A": 1})
	require.NoError(t, err)

	arg := grammar.Calc(func(e grammar.Env) float64 { return e["s"] * k }, "s")
	if describe {
		arg = arg.Describe(fmt.Sprintf("s * %g", k))
	}
	g, err := grammar.New(alphabet, nil, grammar.Rule{
		Focus:   grammar.Match("A", "s"),
		Produce: []grammar.Production{grammar.Emit(turtle.TagForward, arg)},
	})
	require.NoError(t, err)

	sp, err := species.New("weed", g, []grammar.Symbol{grammar.NewSymbol("A", 10)}, turtle.Node{Diameter: 1})
	require.NoError(t, err)
	return sp
}

func TestEngine_BuildSkipsCacheForUndescribedClosures(t *testing.T) {
	cache := memory.NewCache()
	eng := arbor.New(arbor.WithCache(cache))
	ctx := context.Background()

	short, long := scaledWeed(t, 1, false), scaledWeed(t, 5, false)
	require.True(t, short.Opaque())

	a, err := eng.Build(ctx, short, 1)
	require.NoError(t, err)
	b, err := eng.Build(ctx, long, 1)
	require.NoError(t, err)

	assert.False(t, b.Cached)
	assert.InDelta(t, 10, edges(a.Tree)[0].End.Position.Y(), 1e-9)
	assert.InDelta(t, 50, edges(b.Tree)[0].End.Position.Y(), 1e-9)
	assert.Zero(t, cache.Len())
}

func TestEngine_BuildCachesDescribedClosures(t *testing.T) {
	cache := memory.NewCache()
	eng := arbor.New(arbor.WithCache(cache))
	ctx := context.Background()

	short, long := scaledWeed(t, 1, true), scaledWeed(t, 5, true)
	require.False(t, short.Opaque())
	require.NotEqual(t, short.Fingerprint(), long.Fingerprint())

	_, err := eng.Build(ctx, short, 1)
	require.NoError(t, err)
	b, err := eng.Build(ctx, long, 1)
	require.NoError(t, err)
	assert.False(t, b.Cached)
	assert.InDelta(t, 50, edges(b.Tree)[0].End.Position.Y(), 1e-9)

	again, err := eng.Build(ctx, long, 1)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, 2, cache.Len())
}

func TestEngine_BuildDiscardsCorruptEntry(t *testing.T) {
	sp := honda(t)
	cache := memory.NewCache()
	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, arbor.CacheKey(sp, 2), []byte("not json")))

	eng := arbor.New(arbor.WithCache(cache))
	b, err := eng.Build(ctx, sp, 2)
	require.NoError(t, err)
	assert.False(t, b.Cached)
	assert.Equal(t, 4, b.Tree.Len())

	b, err = eng.Build(ctx, sp, 2)
	require.NoError(t, err)
	assert.True(t, b.Cached)
}

func TestEngine_ConcurrentBuildsShareOneConstruction(t *testing.T) {
	sp := honda(t)
	eng := arbor.New(
		arbor.WithCache(memory.NewCache()),
		arbor.WithLocker(memory.NewLocker(), 0),
	)
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		built int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := eng.Build(ctx, sp, 5)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, 32, b.Tree.Len())
			if !b.Cached {
				mu.Lock()
				built++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, built)
}

func TestEngine_ConcurrentBuildsGetTheirOwnTree(t *testing.T) {
	sp := honda(t)
	eng := arbor.New(arbor.WithCache(memory.NewCache()))
	ctx := context.Background()

	trees := make([]*tree.Tree[turtle.Node], 8)
	var wg sync.WaitGroup
	for i := range trees {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := eng.Build(ctx, sp, 4)
			if assert.NoError(t, err) {
				trees[i] = b.Tree
			}
		}()
	}
	wg.Wait()

	want := edges(trees[0])
	for i, tr := range trees[1:] {
		require.NotNil(t, tr)
		assert.NotSame(t, trees[0], tr, "tree %d", i+1)
		assert.Equal(t, want, edges(tr), "tree %d", i+1)
	}
}

// gateLocker holds every Lock call until release is closed.
type gateLocker struct {
	entered chan struct{}
	release chan struct{}
}

func (l *gateLocker) Lock(ctx context.Context, _ string, _ time.Duration) (ports.UnlockFunc, error) {
	l.entered <- struct{}{}
	select {
	case <-l.release:
		return func(context.Context) error { return nil }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestEngine_CanceledBuildDoesNotFailWaitingBuilds(t *testing.T) {
	sp := honda(t)
	locker := &gateLocker{entered: make(chan struct{}, 1), release: make(chan struct{})}
	eng := arbor.New(arbor.WithCache(memory.NewCache()), arbor.WithLocker(locker, time.Minute))

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := eng.Build(first, sp, 4)
		firstErr <- err
	}()

	<-locker.entered
	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	// The fill started by the canceled build is still waiting for the lock.
	second := make(chan *arbor.Build, 1)
	go func() {
		b, err := eng.Build(context.Background(), sp, 4)
		assert.NoError(t, err)
		second <- b
	}()
	close(locker.release)

	b := <-second
	require.NotNil(t, b)
	assert.Equal(t, 16, b.Tree.Len())
	assert.True(t, b.Cached)
}

func TestEngine_WaitingBuildHonorsOwnContext(t *testing.T) {
	sp := honda(t)
	locker := &gateLocker{entered: make(chan struct{}, 1), release: make(chan struct{})}
	defer close(locker.release)
	eng := arbor.New(arbor.WithCache(memory.NewCache()), arbor.WithLocker(locker, time.Minute))

	go func() { _, _ = eng.Build(context.Background(), sp, 4) }()
	<-locker.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := eng.Build(ctx, sp, 4)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngine_MaxSymbols(t *testing.T) {
	sp := honda(t)
	ctx := context.Background()
	eng := arbor.New(arbor.WithMaxSymbols(40), arbor.WithCache(memory.NewCache()))

	_, err := eng.Build(ctx, sp, 8)
	assert.ErrorIs(t, err, lsys.ErrSequenceTooLong)
	_, err = eng.Evolve(ctx, sp, 8)
	assert.ErrorIs(t, err, lsys.ErrSequenceTooLong)

	seq, err := eng.Evolve(ctx, sp, 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(seq), 40)
	_, err = eng.Build(ctx, sp, 1)
	assert.NoError(t, err)
}

func TestEngine_Errors(t *testing.T) {
	sp := honda(t)
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	eng := arbor.New(arbor.WithMetrics(m))

	_, err = eng.Build(context.Background(), sp, -1)
	assert.ErrorIs(t, err, lsys.ErrNegativeIterations)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Build(ctx, sp, 2)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = eng.Evolve(ctx, sp, 2)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = eng.Evolve(context.Background(), sp, -1)
	assert.ErrorIs(t, err, lsys.ErrNegativeIterations)

	expected := `
# HELP arbor_build_errors_total Total number of failed tree builds
# TYPE arbor_build_errors_total counter
arbor_build_errors_total{species="honda"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "arbor_build_errors_total"))
}

func TestEngine_MetricsAndHooks(t *testing.T) {
	sp := honda(t)
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	var generations, interpretations int
	eng := arbor.New(
		arbor.WithMetrics(m),
		arbor.WithHooks(lsys.Hooks{
			OnGeneration: func(lsys.GenerationEvent) { generations++ },
			OnInterpret:  func(lsys.InterpretEvent) { interpretations++ },
		}),
		arbor.WithWorkers(4),
	)

	_, err = eng.Build(context.Background(), sp, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, generations)
	assert.Equal(t, 1, interpretations)

	expected := `
# HELP arbor_generations_total Total number of rewriting generations
# TYPE arbor_generations_total counter
arbor_generations_total 3
# HELP arbor_builds_total Total number of tree builds, by species and cache outcome
# TYPE arbor_builds_total counter
arbor_builds_total{cache="miss",species="honda"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"arbor_generations_total", "arbor_builds_total"))
}

func TestEngine_EvolveMatchesParallel(t *testing.T) {
	sp := honda(t)
	ctx := context.Background()

	seq, err := arbor.New().Evolve(ctx, sp, 7)
	require.NoError(t, err)
	par, err := arbor.New(arbor.WithWorkers(8)).Evolve(ctx, sp, 7)
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}

func TestCacheKey(t *testing.T) {
	sp := honda(t)
	assert.Equal(t, sp.Fingerprint()+":3", arbor.CacheKey(sp, 3))
	assert.NotEqual(t, arbor.CacheKey(sp, 3), arbor.CacheKey(sp, 4))
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "0.1.0", strings.TrimSpace(arbor.Version))
}
