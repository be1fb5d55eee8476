// Package watch recompiles when source or config files change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/xplshn/rcc/pkg/util"
)

const DefaultDebounce = 100 * time.Millisecond

// Watcher observes a fixed set of files. Editors often replace a file instead
// of writing it in place, so the parent directories are watched and events
// are filtered by path.
type Watcher struct {
	fs       *fsnotify.Watcher
	logger   *slog.Logger
	files    map[string]bool
	debounce *Debouncer
}

func New(paths []string, interval time.Duration, logger *slog.Logger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("watch: no files to watch")
	}
	if interval <= 0 {
		interval = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		fs:       fsw,
		logger:   util.OrDiscard(logger),
		files:    make(map[string]bool),
		debounce: NewDebouncer(interval),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch directory %q: %w", dir, err)
		}
		w.logger.Debug("Watching directory", "path", dir)
	}
	return w, nil
}

// Relevant reports whether ev concerns one of the watched files.
func (w *Watcher) Relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	return err == nil && w.files[abs]
}

// Run calls onChange after every burst of changes until ctx is done. Errors
// from onChange are logged, not returned: a broken edit must not end the
// session.
func (w *Watcher) Run(ctx context.Context, onChange func() error) error {
	defer w.debounce.Stop()
	w.logger.Info("Watching for changes", "files", len(w.files))
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.Relevant(ev) {
				continue
			}
			w.logger.Debug("File event detected", "path", ev.Name, "op", ev.Op.String())
			w.debounce.Trigger(func() {
				if err := onChange(); err != nil {
					w.logger.Error("Rebuild failed", "error", err)
				}
			})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Debouncer coalesces rapid triggers into one call after a quiet interval.
// Calls never overlap: a call that fires while the previous one is still
// running waits for it.
type Debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	run      sync.Mutex
	timer    *time.Timer
	stopped  bool
}

func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules fn, replacing any call still pending.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.run.Lock()
		defer d.run.Unlock()
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			fn()
		}
	})
}

// Stop cancels the pending call. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
