package render

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultRescaleDebounce is the quiet period after the last viewport change
// before the chart is considered settled.
const DefaultRescaleDebounce = 120 * time.Millisecond

// RescaleTracker tracks the rescale window of the host chart. Touch opens
// the window; it closes after the debounce passes without another Touch.
// onChange runs after every transition so the caller can schedule a
// redraw.
type RescaleTracker struct {
	clock    clock.Clock
	debounce time.Duration
	onChange func()

	mu      sync.Mutex
	scaling bool
	gen     uint64
	timer   *clock.Timer
	stopped bool
}

// NewRescaleTracker creates a tracker. A nil clock uses the wall clock and a
// non-positive debounce uses DefaultRescaleDebounce.
func NewRescaleTracker(clk clock.Clock, debounce time.Duration, onChange func()) *RescaleTracker {
	if clk == nil {
		clk = clock.New()
	}
	if debounce <= 0 {
		debounce = DefaultRescaleDebounce
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &RescaleTracker{clock: clk, debounce: debounce, onChange: onChange}
}

// Touch records a viewport change.
func (t *RescaleTracker) Touch() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.scaling = true
	t.gen++
	gen := t.gen
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = t.clock.AfterFunc(t.debounce, func() { t.settle(gen) })
	t.mu.Unlock()

	t.onChange()
}

func (t *RescaleTracker) settle(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.scaling = false
	t.timer = nil
	t.mu.Unlock()

	t.onChange()
}

// Scaling reports whether the rescale window is open.
func (t *RescaleTracker) Scaling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scaling
}

// Stop cancels the pending settle and closes the window without a
// notification.
func (t *RescaleTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.scaling = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
