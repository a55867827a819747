package pipeline

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/specdrift/diffseg"
	"github.com/c360studio/specdrift/source"
)

// DefaultDebounce coalesces editor save bursts into one analysis run.
const DefaultDebounce = 500 * time.Millisecond

// skipDirs are directory names never watched.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
}

// Watcher re-runs the pipeline over the working tree diff whenever watched
// source files change.
type Watcher struct {
	pipeline *Pipeline
	accessor *source.GitAccessor
	root     string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	hashes  map[string][32]byte

	reports chan *DiffReport
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a flush.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a watcher over a git working tree.
func NewWatcher(p *Pipeline, accessor *source.GitAccessor, root string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		pipeline: p,
		accessor: accessor,
		root:     root,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		pending:  make(map[string]struct{}),
		hashes:   make(map[string][32]byte),
		reports:  make(chan *DiffReport, 8),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Reports returns the channel of analysis reports. Closed when Watch
// returns.
func (w *Watcher) Reports() <-chan *DiffReport {
	return w.reports
}

// Watch blocks, re-running the pipeline on working tree changes until the
// context is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	defer close(w.reports)

	if err := w.addDirs(fw, w.root); err != nil {
		return err
	}

	w.logger.Info("Watching for changes", "root", w.root, "debounce", w.debounce)

	var timer *time.Timer
	flushCh := make(chan struct{}, 1)
	scheduleFlush := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case flushCh <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addDirs(fw, event.Name)
					continue
				}
			}
			if !w.relevant(event) {
				continue
			}
			w.mu.Lock()
			w.pending[event.Name] = struct{}{}
			w.mu.Unlock()
			scheduleFlush()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watch error", "error", err)

		case <-flushCh:
			w.flush(ctx)
		}
	}
}

// relevant filters events down to writes on recognized source files whose
// contents actually changed.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if diffseg.LanguageForPath(event.Name) == "" {
		return false
	}

	// Skip writes that left the content unchanged (editor touch, atomic
	// save rewrites).
	if event.Op&fsnotify.Write != 0 {
		data, err := os.ReadFile(event.Name)
		if err == nil {
			sum := sha256.Sum256(data)
			w.mu.Lock()
			prev, seen := w.hashes[event.Name]
			w.hashes[event.Name] = sum
			w.mu.Unlock()
			if seen && prev == sum {
				return false
			}
		}
	}
	return true
}

// flush runs the pipeline over the current working tree diff.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	n := len(w.pending)
	w.pending = make(map[string]struct{})
	w.mu.Unlock()
	if n == 0 {
		return
	}

	diffText, files, err := w.accessor.DiffWorkingTree(ctx)
	if err != nil {
		w.logger.Warn("Working tree diff failed", "error", err)
		return
	}
	if len(files) == 0 {
		return
	}

	report := w.pipeline.ProcessDiff(ctx, "", diffText, files)
	select {
	case w.reports <- report:
	case <-ctx.Done():
	}
}

// addDirs registers a directory tree with the fsnotify watcher.
func (w *Watcher) addDirs(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if skipDirs[name] || (strings.HasPrefix(name, ".") && path != root) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
