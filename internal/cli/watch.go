package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 150 * time.Millisecond

// FileWatcher reports changes to a single file.
// It watches the parent directory so that editors which replace the file on
// save (rename over it) keep being observed.
type FileWatcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// NewFileWatcher starts watching path.
func NewFileWatcher(path string, debounce time.Duration, logger *slog.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FileWatcher{path: abs, debounce: debounce, logger: logger, watcher: w}, nil
}

// Watch calls onChange once per burst of changes until ctx is done.
// onChange never runs concurrently with itself.
func (fw *FileWatcher) Watch(ctx context.Context, onChange func()) error {
	defer fw.watcher.Close()

	var (
		mu    sync.Mutex
		timer *time.Timer
		runMu sync.Mutex
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		// Wait for a callback that already started.
		runMu.Lock()
		runMu.Unlock()
	}()

	fire := func() {
		runMu.Lock()
		defer runMu.Unlock()
		if ctx.Err() != nil {
			return
		}
		onChange()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !fw.relevant(event) {
				continue
			}
			fw.logger.Debug("file event detected", "path", event.Name, "op", event.Op.String())

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(fw.debounce, fire)
			mu.Unlock()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			fw.logger.Error("file watcher error", "error", err)
		}
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == fw.path
}

// RunWatch builds the species once and again every time its file changes.
// Premade species have no file to watch.
func RunWatch(ctx context.Context, opts RunOptions) error {
	if !isFile(opts.Species) {
		return fmt.Errorf("--watch needs a species file, %q is a premade species", opts.Species)
	}

	logger := createLogger(opts.Debug)
	engine, closeEngine, err := createEngine(opts, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	if opts.Format == FormatText {
		tui.PrintBanner(opts.Out, arbor.Version)
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	watcher, err := NewFileWatcher(opts.Species, DefaultDebounce, logger)
	if err != nil {
		return err
	}

	rebuild := func() {
		if err := buildOnce(sigCtx, engine, opts); err != nil {
			// A broken file is expected while editing; keep watching.
			printSystemMessage(opts.Out, "Build failed: %v", err)
		}
		printSystemMessage(opts.Out, "Watching '%s' for changes...", opts.Species)
	}

	rebuild()
	err = watcher.Watch(sigCtx, func() {
		printSystemMessage(opts.Out, "Change detected in '%s'.", opts.Species)
		rebuild()
	})
	if sig := sigCtx.Signal(); sig != nil {
		logger.Info("stopping watcher", "signal", strings.ToUpper(sig.String()))
	}
	return err
}
