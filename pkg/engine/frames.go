package engine

import (
	"sync"
	"time"
)

// TickerFrames is a FrameScheduler that runs requested callbacks once the
// interval has elapsed since the first outstanding request.
type TickerFrames struct {
	interval time.Duration

	mu      sync.Mutex
	queue   []func()
	timer   *time.Timer
	stopped bool
}

// NewTickerFrames creates a scheduler with the given frame interval.
func NewTickerFrames(interval time.Duration) *TickerFrames {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &TickerFrames{interval: interval}
}

// RequestFrame queues fn for the next frame.
func (f *TickerFrames) RequestFrame(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	f.queue = append(f.queue, fn)
	if f.timer == nil {
		f.timer = time.AfterFunc(f.interval, f.fire)
	}
}

func (f *TickerFrames) fire() {
	f.mu.Lock()
	fns := f.queue
	f.queue = nil
	f.timer = nil
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Stop drops queued callbacks and ignores later requests.
func (f *TickerFrames) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	f.queue = nil
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
