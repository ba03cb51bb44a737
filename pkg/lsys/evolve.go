package lsys

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// parallelMin is the smallest generation worth splitting across workers.
const parallelMin = 64

// Evolve rewrites axiom for the given number of generations.
//
// Rewriting is simultaneous: within a generation every position is rewritten
// against the same frozen snapshot of the previous generation, so no position
// ever observes another position's replacement. The previous generation is
// released once the next one is complete.
//
// Zero or negative iterations return a copy of the axiom. Evolve never fails;
// growth is bounded only by the grammar and the iteration count, and
// WithMaxSymbols is ignored. Use EvolveLimit to bound it.
func Evolve[A any](g Grammar[A], axiom []A, iterations int, opts ...Option) []A {
	seq, _ := evolve(g, axiom, iterations, 0, newConfig(opts))
	return seq
}

// EvolveLimit is Evolve with the WithMaxSymbols bound applied: it stops with
// ErrSequenceTooLong as soon as the axiom or a generation is longer than the
// bound. Without the option it behaves exactly like Evolve.
func EvolveLimit[A any](g Grammar[A], axiom []A, iterations int, opts ...Option) ([]A, error) {
	cfg := newConfig(opts)
	return evolve(g, axiom, iterations, cfg.maxSymbols, cfg)
}

func evolve[A any](g Grammar[A], axiom []A, iterations, limit int, cfg *config) ([]A, error) {
	if limit > 0 && len(axiom) > limit {
		return nil, fmt.Errorf("%w: axiom has %d symbols, limit is %d", ErrSequenceTooLong, len(axiom), limit)
	}

	current := make([]A, len(axiom))
	copy(current, axiom)

	for gen := 0; gen < iterations; gen++ {
		start := time.Now()

		var next []A
		if cfg.workers > 1 && len(current) >= parallelMin {
			next = rewriteParallel(g, current, cfg.workers, limit)
		} else {
			next = rewriteRange(g, current, 0, len(current), make([]A, 0, len(current)), limit)
		}
		if limit > 0 && len(next) > limit {
			cfg.logger.Debug("generation over limit", "generation", gen, "limit", limit)
			return nil, fmt.Errorf("%w: generation %d grew past %d symbols", ErrSequenceTooLong, gen, limit)
		}

		event := GenerationEvent{
			Generation: gen,
			InputLen:   len(current),
			OutputLen:  len(next),
			Duration:   time.Since(start),
		}
		cfg.logger.Debug("generation rewritten",
			"generation", gen,
			"input_len", event.InputLen,
			"output_len", event.OutputLen,
		)
		cfg.hooks.generation(event)

		current = next
	}

	return current, nil
}

// rewriteRange appends the replacements of snapshot[from:to] to out. With a
// positive limit it stops as soon as out is longer than limit.
func rewriteRange[A any](g Grammar[A], snapshot []A, from, to int, out []A, limit int) []A {
	for a := from; a < to; a++ {
		out = append(out, g.Rewrite(snapshot[a], snapshot[:a], snapshot[a+1:])...)
		if limit > 0 && len(out) > limit {
			break
		}
	}
	return out
}

// rewriteParallel partitions snapshot into contiguous chunks, rewrites them
// concurrently, and joins the results in position order.
func rewriteParallel[A any](g Grammar[A], snapshot []A, workers, limit int) []A {
	size := (len(snapshot) + workers - 1) / workers
	parts := make([][]A, 0, workers)
	for from := 0; from < len(snapshot); from += size {
		parts = append(parts, nil)
	}

	var eg errgroup.Group
	eg.SetLimit(workers)
	for i := range parts {
		from := i * size
		to := min(from+size, len(snapshot))
		eg.Go(func() error {
			parts[i] = rewriteRange(g, snapshot, from, to, make([]A, 0, to-from), limit)
			return nil
		})
	}
	_ = eg.Wait() // chunks never fail

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	next := make([]A, 0, total)
	for _, p := range parts {
		next = append(next, p...)
	}
	return next
}
