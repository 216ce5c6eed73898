package filetree

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marc2332/freya-editor/internal/debounce"
)

// DefaultRefreshDelay is the quiet period before a changed folder is
// reported.
const DefaultRefreshDelay = 100 * time.Millisecond

// Watcher reports folders whose contents changed on disk. Only folders
// passed to Watch are observed; subdirectories are not watched
// implicitly.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger
	delay  time.Duration

	mu      sync.Mutex
	pending map[string]*debounce.Handle
	watched map[string]bool

	changes chan string
}

// NewWatcher creates a watcher. Call Run to start delivering changes.
func NewWatcher(logger *slog.Logger, delay time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if delay <= 0 {
		delay = DefaultRefreshDelay
	}
	return &Watcher{
		fsw:     fsw,
		logger:  logger,
		delay:   delay,
		pending: make(map[string]*debounce.Handle),
		watched: make(map[string]bool),
		changes: make(chan string, 16),
	}, nil
}

// Watch starts observing dir. Watching a folder twice is a no-op.
func (w *Watcher) Watch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watched[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	w.watched[dir] = true
	return nil
}

// Unwatch stops observing dir.
func (w *Watcher) Unwatch(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.watched[dir] {
		return
	}
	delete(w.watched, dir)
	_ = w.fsw.Remove(dir)
	if h, ok := w.pending[dir]; ok {
		h.Cancel()
		delete(w.pending, dir)
	}
}

// Changes returns the channel of changed folder paths.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Run delivers changes until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			w.schedule(ctx, filepath.Dir(ev.Name))

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.watched[dir] {
		return
	}
	h, ok := w.pending[dir]
	if !ok {
		h = debounce.Acquire(w.delay)
		w.pending[dir] = h
	}
	h.Trigger(func() {
		select {
		case w.changes <- dir:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) close() {
	w.mu.Lock()
	for _, h := range w.pending {
		h.Cancel()
	}
	w.pending = map[string]*debounce.Handle{}
	w.mu.Unlock()

	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("closing file watcher", "error", err)
	}
}
