package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the bursts of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a config file when it changes.
type Watcher struct {
	path     string
	lookup   LookupFunc
	debounce time.Duration
	onChange func(*Config)
	onError  func(error)

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timer   *time.Timer
	done    chan struct{}
	stopped chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithEnv sets the environment used on reload.
func WithEnv(lookup LookupFunc) WatcherOption {
	return func(w *Watcher) {
		w.lookup = lookup
	}
}

// NewWatcher creates a watcher for path. onChange receives every valid
// reload; onError, if non-nil, receives reload and watch failures.
func NewWatcher(path string, onChange func(*Config), onError func(error), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     path,
		lookup:   os.LookupEnv,
		debounce: DefaultDebounce,
		onChange: onChange,
		onError:  onError,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start watches the file's directory so that replace-on-save editors are
// seen too.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsw != nil {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.fsw = fsw
	w.done = make(chan struct{})
	w.stopped = make(chan struct{})
	go w.loop(fsw, w.done, w.stopped)
	return nil
}

// Close stops watching. Pending reloads are cancelled.
func (w *Watcher) Close() error {
	w.mu.Lock()
	fsw, done, stopped := w.fsw, w.done, w.stopped
	w.fsw = nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if fsw == nil {
		return nil
	}
	close(done)
	err := fsw.Close()
	<-stopped
	return err
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, done, stopped chan struct{}) {
	defer close(stopped)
	name := filepath.Base(w.path)
	for {
		select {
		case <-done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.schedule()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.report(fmt.Errorf("watch %s: %w", w.path, err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := LoadWithEnv(w.path, w.lookup)
	if err != nil {
		w.report(fmt.Errorf("reload config: %w", err))
		return
	}
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

func (w *Watcher) report(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
