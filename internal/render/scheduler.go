package render

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultFrameInterval approximates one display frame.
const DefaultFrameInterval = 16 * time.Millisecond

// Scheduler coalesces redraw requests.
type Scheduler interface {
	// Request schedules fn. A request made while another is pending
	// replaces the pending callback.
	Request(fn func())
	// Stop drops any pending request and ignores later ones.
	Stop()
}

var (
	_ Scheduler = (*FrameScheduler)(nil)
	_ Scheduler = (*ImmediateScheduler)(nil)
)

// FrameScheduler runs at most one callback per frame interval.
type FrameScheduler struct {
	clock    clock.Clock
	interval time.Duration

	mu      sync.Mutex
	pending func()
	timer   *clock.Timer
	stopped bool
}

// NewFrameScheduler creates a scheduler on clk. A nil clock uses the wall
// clock and a non-positive interval uses DefaultFrameInterval.
func NewFrameScheduler(clk clock.Clock, interval time.Duration) *FrameScheduler {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameScheduler{clock: clk, interval: interval}
}

func (s *FrameScheduler) Request(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || fn == nil {
		return
	}
	s.pending = fn
	if s.timer == nil {
		s.timer = s.clock.AfterFunc(s.interval, s.fire)
	}
}

func (s *FrameScheduler) fire() {
	s.mu.Lock()
	fn := s.pending
	s.pending = nil
	s.timer = nil
	stopped := s.stopped
	s.mu.Unlock()

	if fn != nil && !stopped {
		fn()
	}
}

// Pending reports whether a callback is waiting for the next frame.
func (s *FrameScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *FrameScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// ImmediateScheduler runs every request inline. Tests and headless tools
// use it to get deterministic frames.
type ImmediateScheduler struct {
	mu      sync.Mutex
	stopped bool
}

func (s *ImmediateScheduler) Request(fn func()) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if !stopped && fn != nil {
		fn()
	}
}

func (s *ImmediateScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}
