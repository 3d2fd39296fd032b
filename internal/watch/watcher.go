// Package watch polls tree description files for changes.
package watch

import (
	"context"
	"os"
	"sync"
	"time"
)

// Change reports that a watched file was modified or removed.
type Change struct {
	Path    string
	Removed bool
}

// Config configures a Watcher.
type Config struct {
	// Paths are the files to watch.
	Paths []string

	// Interval is the polling period (default: 250ms).
	Interval time.Duration
}

// Watcher polls file modification times.
type Watcher struct {
	config   Config
	mu       sync.Mutex
	onChange func(Change)
	running  bool
	stopCh   chan struct{}
	modTimes map[string]time.Time
}

// New creates a Watcher. Start begins polling.
func New(config Config) *Watcher {
	if config.Interval <= 0 {
		config.Interval = 250 * time.Millisecond
	}
	return &Watcher{
		config:   config,
		modTimes: make(map[string]time.Time),
	}
}

// OnChange sets the callback for changes. It runs on the polling goroutine.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start polls until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.scan(false)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.scan(true)
		}
	}
}

// Stop stops polling.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// Poll checks the files once and reports changes since the last check.
func (w *Watcher) Poll() {
	w.scan(true)
}

func (w *Watcher) scan(report bool) {
	var changes []Change

	w.mu.Lock()
	for _, p := range w.config.Paths {
		info, err := os.Stat(p)
		last, seen := w.modTimes[p]
		if err != nil {
			if seen {
				delete(w.modTimes, p)
				changes = append(changes, Change{Path: p, Removed: true})
			}
			continue
		}
		if !seen || info.ModTime().After(last) {
			w.modTimes[p] = info.ModTime()
			changes = append(changes, Change{Path: p})
		}
	}
	callback := w.onChange
	w.mu.Unlock()

	if !report || callback == nil {
		return
	}
	for _, c := range changes {
		callback(c)
	}
}
