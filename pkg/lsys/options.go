package lsys

import (
	"io"
	"log/slog"
)

type config struct {
	logger     *slog.Logger
	hooks      Hooks
	workers    int
	maxSymbols int
}

// Option configures Evolve, EvolveLimit and Construct.
type Option func(*config)

// WithLogger sets the structured logger. Generations are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks Hooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

// WithWorkers rewrites each generation on up to n goroutines.
// Values below 2 keep the single-threaded path. The result is identical either way.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithMaxSymbols bounds the length of every generation for EvolveLimit and
// Construct, which fail with ErrSequenceTooLong past it. Values below 1 mean
// no bound.
func WithMaxSymbols(n int) Option {
	return func(c *config) {
		c.maxSymbols = n
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
