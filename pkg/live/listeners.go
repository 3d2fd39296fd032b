package live

import (
	"context"
	"errors"
	"sort"
	"sync"

	vmerrors "github.com/vango-dev/vmirror/internal/errors"
	"github.com/vango-dev/vmirror/pkg/protocol"
)

// Handler handles a delegated event.
type Handler func(ctx context.Context, ev *protocol.Event) error

// Registration is the (type, selector) pair a listener delegates.
type Registration struct {
	Type     string `json:"type"`
	Selector string `json:"selector"`
}

type listener struct {
	Registration
	fn Handler
}

// Listeners maps delegated events to handlers. Event delegation itself runs
// in the browser; this only dispatches what it reports.
type Listeners struct {
	mu   sync.RWMutex
	next uint64
	byID map[uint64]listener
}

// NewListeners creates an empty registry.
func NewListeners() *Listeners {
	return &Listeners{byID: make(map[uint64]listener)}
}

// Add registers fn for events of eventType whose target matches selector
// and returns the listener id.
func (l *Listeners) Add(eventType, selector string, fn Handler) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.byID[l.next] = listener{Registration{eventType, selector}, fn}
	return l.next
}

// Remove unregisters a listener. It reports whether id was registered.
func (l *Listeners) Remove(id uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.byID[id]
	delete(l.byID, id)
	return ok
}

// Registrations returns the distinct registered pairs, sorted.
func (l *Listeners) Registrations() []Registration {
	l.mu.RLock()
	seen := make(map[Registration]bool, len(l.byID))
	out := make([]Registration, 0, len(l.byID))
	for _, ln := range l.byID {
		if !seen[ln.Registration] {
			seen[ln.Registration] = true
			out = append(out, ln.Registration)
		}
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Selector < out[j].Selector
	})
	return out
}

// Dispatch runs the handlers registered for ev's type and selector in
// registration order. Handler errors are joined. An event no listener
// matches yields R012.
func (l *Listeners) Dispatch(ctx context.Context, ev *protocol.Event) error {
	key := Registration{ev.Type, ev.Selector}
	l.mu.RLock()
	var ids []uint64
	for id, ln := range l.byID {
		if ln.Registration == key {
			ids = append(ids, id)
		}
	}
	fns := make([]Handler, 0, len(ids))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fns = append(fns, l.byID[id].fn)
	}
	l.mu.RUnlock()

	if len(fns) == 0 {
		return vmerrors.New("R012").WithDetailf("%s %q", ev.Type, ev.Selector)
	}
	var errs []error
	for _, fn := range fns {
		if err := fn(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
