package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/arbor/internal/presentation/tui"
)

// Output formats accepted by build.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatMermaid = "mermaid"
)

// RunOptions contains all the configuration for the build and evolve commands.
type RunOptions struct {
	// Species is a premade name or a path to a species file.
	Species string
	// Iterations overrides the species default when non-negative.
	Iterations int
	Format     string
	Watch      bool
	Debug      bool
	// Cache is "", "memory", a redis:// URL or a directory.
	Cache   string
	Workers int
	Out     io.Writer
}

func (o *RunOptions) normalize() error {
	if o.Out == nil {
		o.Out = os.Stdout
	}
	o.Format = strings.ToLower(o.Format)
	switch o.Format {
	case "":
		o.Format = FormatText
	case FormatText, FormatJSON, FormatMermaid:
	default:
		return fmt.Errorf("unsupported format %q (want text, json or mermaid)", o.Format)
	}
	if o.Species == "" {
		return fmt.Errorf("missing species name or file")
	}
	return nil
}

// Execute handles the 'build' command logic, dispatching to one-shot or Watch mode.
func Execute(ctx context.Context, opts RunOptions) error {
	if err := opts.normalize(); err != nil {
		return err
	}
	if opts.Watch {
		return RunWatch(ctx, opts)
	}

	logger := createLogger(opts.Debug)
	engine, closeEngine, err := createEngine(opts, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	return buildOnce(ctx, engine, opts)
}

// Evolve prints the rewritten sequence of a species.
func Evolve(ctx context.Context, opts RunOptions) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	logger := createLogger(opts.Debug)
	engine, closeEngine, err := createEngine(opts, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	sp, err := LoadSpecies(opts.Species)
	if err != nil {
		return err
	}
	seq, err := engine.Evolve(ctx, sp, iterationsFor(opts, sp.Iterations))
	if err != nil {
		return err
	}

	if opts.Format == FormatJSON {
		return writeJSON(opts.Out, seq)
	}
	_, err = fmt.Fprintln(opts.Out, tui.NewHighlighter(opts.Out).Sequence(seq))
	return err
}

func iterationsFor(opts RunOptions, fallback int) int {
	if opts.Iterations >= 0 {
		return opts.Iterations
	}
	return fallback
}
