package scenario

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dawnworks/tracer/internal/integration"
	"github.com/dawnworks/tracer/internal/logging"
)

// DefaultDebounce is how long the watcher waits after the last write before
// re-applying the scenario. Editors often emit several events per save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher re-applies a scenario file to an engine whenever it is written.
type Watcher struct {
	watcher  *fsnotify.Watcher
	engine   *integration.Engine
	path     string
	debounce time.Duration
	logger   *logging.Logger

	// Callbacks run on the watch goroutine.
	onApply func(Result)
	onError func(error)

	mu       sync.Mutex
	started  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithApplyCallback is called after every successful reload.
func WithApplyCallback(cb func(Result)) WatcherOption {
	return func(w *Watcher) { w.onApply = cb }
}

// WithErrorCallback is called when a reload or the underlying watcher fails.
func WithErrorCallback(cb func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = cb }
}

// NewWatcher creates a watcher for the scenario at path. The file's directory
// is watched rather than the file so atomic saves (write temp, rename) are seen.
func NewWatcher(engine *integration.Engine, path string, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		engine:   engine,
		path:     abs,
		debounce: DefaultDebounce,
		logger:   engine.Logger.WithComponent("scenario"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching in a background goroutine. Calling it twice is a no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	go w.watchLoop()
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()

		w.mu.Lock()
		started := w.started
		w.mu.Unlock()
		if started {
			<-w.doneCh
		}
	})
}

func (w *Watcher) watchLoop() {
	defer close(w.doneCh)

	timer := time.NewTimer(0)
	<-timer.C
	pending := false

	for {
		select {
		case <-w.stopCh:
			timer.Stop()
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("scenario watcher error", "path", w.path, "error", err.Error())
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) reload() {
	res, err := LoadAndApply(w.engine, w.path)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.logger.Debug("scenario reloaded", "path", w.path, "targets", res.Targets, "reblooms", res.Reblooms)
	if w.onApply != nil {
		w.onApply(res)
	}
}
