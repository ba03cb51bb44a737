package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/lsys"
	"github.com/aretw0/arbor/pkg/species"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger.
// In debug mode, it writes to Stderr (to separate from Stdout tree output).
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelWarn)
}

// createDebugHooks logs every generation and interpretation.
func createDebugHooks(logger *slog.Logger) lsys.Hooks {
	return lsys.Hooks{
		OnGeneration: func(e lsys.GenerationEvent) {
			logger.Debug("generation",
				"n", e.Generation,
				"in", e.InputLen,
				"out", e.OutputLen,
				"duration", e.Duration,
			)
		},
		OnInterpret: func(e lsys.InterpretEvent) {
			logger.Debug("interpretation",
				"symbols", e.Symbols,
				"nodes", e.Nodes,
				"max_depth", e.MaxDepth,
				"duration", e.Duration,
			)
		},
	}
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// LoadSpecies resolves ref as a species file when one exists at that path,
// and as a premade name otherwise.
func LoadSpecies(ref string) (*species.Species, error) {
	info, err := os.Stat(ref)
	switch {
	case err == nil && !info.IsDir():
		return species.Load(ref)
	case err == nil:
		return nil, fmt.Errorf("%s is a directory, not a species file", ref)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}
	return species.Lookup(ref)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
