package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/stylepipe/internal/pathglob"
)

// DefaultDebounce is the quiet period used when Options.Debounce is unset.
const DefaultDebounce = 200 * time.Millisecond

// RunFunc is called for the initial build and each time the watcher
// triggers a rebuild.
type RunFunc func(ctx context.Context) (*RunResult, error)

// RunResult holds the output of a single pipeline execution so the
// watcher can report what changed between rebuilds.
type RunResult struct {
	OutputPath string
	Entries    int
	Size       int
	Digest     string
	Duration   time.Duration
}

// Options configures the watch behaviour.
type Options struct {
	// Patterns are the stylesheet globs whose changes trigger a rebuild.
	// The static base directory of each pattern is watched recursively.
	Patterns []string

	// Debounce is the quiet period before triggering a rebuild.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: DefaultDebounce,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run performs an initial build, then watches the configured patterns and
// rebuilds after changes. It blocks until the context is cancelled or a
// SIGINT/SIGTERM signal is received. Build failures are reported and the
// loop keeps running.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	matcher, err := pathglob.Compile(opts.Patterns...)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	roots, err := watchRoots(watcher, opts)
	if err != nil {
		return err
	}

	// Trap SIGINT / SIGTERM for graceful shutdown.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", strings.Join(roots, ", "), opts.Debounce)

	r := &runner{opts: opts, runFn: runFn}

	r.run(sigCtx, "(initial)")

	debouncer := NewDebouncer(opts.Debounce, func(path string) {
		r.run(sigCtx, path)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) {
				continue
			}

			// If a new directory was created, watch it too.
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if addErr := addRecursive(watcher, event.Name); addErr != nil {
						opts.Logger.Warn("watching new directory",
							slog.String("path", event.Name), slog.String("error", addErr.Error()))
					}

					// A directory moved into the tree brings its files
					// without per-file events.
					if containsMatch(event.Name, matcher) {
						debouncer.Trigger(event.Name)
					}

					continue
				}
			}

			if !matcher.Match(event.Name) && !removedDir(event, matcher) {
				continue
			}

			opts.Logger.Debug("change detected", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// watchRoots adds the base directory of every pattern. Missing bases are
// skipped; it fails only when nothing could be watched.
func watchRoots(watcher *fsnotify.Watcher, opts Options) ([]string, error) {
	seen := make(map[string]bool)

	var roots []string

	for _, p := range opts.Patterns {
		base := pathglob.Base(p)
		if seen[base] {
			continue
		}

		seen[base] = true

		if err := addRecursive(watcher, base); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				opts.Logger.Warn("watch directory does not exist", slog.String("path", base))
				continue
			}

			return nil, fmt.Errorf("watching %s: %w", base, err)
		}

		roots = append(roots, base)
	}

	if len(roots) == 0 {
		return nil, fmt.Errorf("watching %s: no existing directories", strings.Join(opts.Patterns, ", "))
	}

	return roots, nil
}

// containsMatch reports whether any file below dir matches.
func containsMatch(dir string, matcher *pathglob.Matcher) bool {
	found := false

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found {
			return filepath.SkipDir
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}

			return nil
		}

		if matcher.Match(path) {
			found = true
			return filepath.SkipAll
		}

		return nil
	})

	return found
}

// removedDir reports whether event removes or moves away something that
// looks like a directory which may have held matching files.
func removedDir(event fsnotify.Event, matcher *pathglob.Matcher) bool {
	if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	if filepath.Ext(event.Name) != "" {
		return false
	}

	return matcher.MayContain(event.Name)
}

// runner executes pipeline runs and remembers the last successful result.
// Runs are serialized by the debouncer, so no locking is needed here.
type runner struct {
	opts  Options
	runFn RunFunc
	last  *RunResult
}

// run executes a single pipeline run and prints the status line.
func (r *runner) run(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}

	now := time.Now().Format("15:04:05")

	result, err := r.runFn(ctx)
	if err != nil {
		fmt.Fprintf(r.opts.Out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		r.opts.Logger.Error("build failed", slog.String("trigger", trigger), slog.String("error", err.Error()))

		return
	}

	fmt.Fprintf(r.opts.Out, "[%s] %s → OK (%s)\n", now, trigger, Summary(r.last, result))

	r.last = result
}

// addRecursive walks root and adds all directories to the watcher.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Skip hidden directories (e.g., .git).
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}

			return watcher.Add(path)
		}

		return nil
	})
}

// isRelevant filters out events that can never affect the bundle.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	// Only care about write, create, remove, rename.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	// Ignore editor temporary files and hidden files.
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}
