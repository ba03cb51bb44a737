package lsys

import (
	"fmt"
	"time"

	"github.com/aretw0/arbor/pkg/tree"
)

// Construct builds a tree from sys.
//
// It creates an arena holding root as node 0, derives the initial state from
// the root handle with seed, evolves the axiom for the given iterations and
// feeds every resulting symbol, left to right, to sys.Process. Any error,
// including a generation past WithMaxSymbols, aborts the build and no tree is
// returned.
func Construct[A, N, S any](sys System[A, N, S], root N, iterations int, seed func(tree.Handle) S, opts ...Option) (*tree.Tree[N], error) {
	if iterations < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeIterations, iterations)
	}
	cfg := newConfig(opts)

	t := tree.New[N]()
	rootHandle := t.AddNode(root)
	ctx := NewContext(t, seed(rootHandle))

	symbols, err := evolve[A](sys, sys.Axiom(), iterations, cfg.maxSymbols, cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := Interpret(sys, ctx, symbols); err != nil {
		cfg.logger.Debug("interpretation aborted", "err", err)
		return nil, err
	}

	cfg.hooks.interpret(InterpretEvent{
		Symbols:  len(symbols),
		Nodes:    t.Len(),
		MaxDepth: ctx.maxDepth,
		Duration: time.Since(start),
	})
	cfg.logger.Debug("tree constructed", "symbols", len(symbols), "nodes", t.Len())

	return t, nil
}

// Interpret runs sys.Process over symbols once, in order, and checks that
// every saved state was restored.
func Interpret[A, N, S any](sys System[A, N, S], ctx *Context[N, S], symbols []A) error {
	for i, atom := range symbols {
		if err := sys.Process(ctx, atom); err != nil {
			return fmt.Errorf("symbol %d: %w", i, err)
		}
	}
	if ctx.Depth() != 0 {
		return fmt.Errorf("%w: %d saved states left after %d symbols", ErrUnbalancedStack, ctx.Depth(), len(symbols))
	}
	return nil
}
