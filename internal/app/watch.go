package app

import (
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultWatchInterval is how often FileWatcher polls.
const DefaultWatchInterval = 2 * time.Second

// FileWatcher polls a file's modification time and calls back when it
// moves forward. The GUI uses it to pick up config edits without a restart.
type FileWatcher struct {
	path     string
	clock    clock.Clock
	interval time.Duration

	mu       sync.Mutex
	baseline time.Time
	onChange func()
	stopCh   chan struct{}
}

// NewFileWatcher creates a watcher for path. A missing file has a zero
// baseline, so creating it counts as a change.
func NewFileWatcher(path string, interval time.Duration, clk clock.Clock) *FileWatcher {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	w := &FileWatcher{path: path, clock: clk, interval: interval}
	w.baseline, _ = w.modTime()
	return w
}

// OnChange sets the callback. It runs on the watcher goroutine.
func (w *FileWatcher) OnChange(fn func()) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// Path returns the watched path.
func (w *FileWatcher) Path() string {
	return w.path
}

func (w *FileWatcher) modTime() (time.Time, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Check reports whether the file changed since the last check and moves
// the baseline forward.
func (w *FileWatcher) Check() bool {
	mod, err := w.modTime()
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !mod.After(w.baseline) {
		return false
	}
	w.baseline = mod
	return true
}

// Start begins polling in a background goroutine.
func (w *FileWatcher) Start() {
	w.mu.Lock()
	if w.stopCh != nil {
		w.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	w.stopCh = stopCh
	w.mu.Unlock()

	go w.watchLoop(stopCh)
}

// Stop ends polling.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *FileWatcher) watchLoop(stopCh chan struct{}) {
	ticker := w.clock.Ticker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !w.Check() {
				continue
			}
			log.WithField("path", w.path).Info("watched file changed")
			w.mu.Lock()
			fn := w.onChange
			w.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
	}
}
