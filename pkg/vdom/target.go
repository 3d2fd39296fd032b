package vdom

import (
	"context"
	"sync"

	"github.com/vango-dev/vmirror/internal/errors"
)

// Errors returned by reconciliation. Match them with errors.Is.
var (
	ErrElementNotFound = errors.New("R003")
	ErrNotMounted      = errors.New("R004")
	ErrTarget          = errors.New("R007")
)

// Element is an opaque reference to a live element of the external target.
type Element any

// Position selects where InsertAdjacentHTML and InsertAdjacentElement
// place content relative to an element.
type Position uint8

const (
	BeforeBegin Position = iota // before the element
	AfterBegin                  // inside, before the first child
	BeforeEnd                   // inside, after the last child
	AfterEnd                    // after the element
)

// String returns the DOM name of the position.
func (p Position) String() string {
	switch p {
	case BeforeBegin:
		return "beforebegin"
	case AfterBegin:
		return "afterbegin"
	case BeforeEnd:
		return "beforeend"
	case AfterEnd:
		return "afterend"
	default:
		return "unknown"
	}
}

// ParsePosition is the inverse of Position.String.
func ParsePosition(s string) (Position, bool) {
	for p := BeforeBegin; p <= AfterEnd; p++ {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

// Target is the live element tree that reconciliation writes to.
type Target interface {
	SetAttribute(el Element, name, value string) error
	RemoveAttribute(el Element, name string) error
	SetTextContent(el Element, text string) error
	InsertAdjacentHTML(el Element, pos Position, html string) error
	InsertAdjacentElement(el Element, pos Position, moved Element) error
	SetOuterHTML(el Element, html string) error
	Remove(el Element) error
	GetElementByID(id string) (Element, bool)
}

// Committer is implemented by targets that buffer mutations. Commit is
// called once at the end of every flush.
type Committer interface {
	Commit(ctx context.Context) error
}

// FrameScheduler runs callbacks at the next frame boundary.
type FrameScheduler interface {
	RequestFrame(fn func())
}

// ManualFrames is a FrameScheduler whose frames are run explicitly.
type ManualFrames struct {
	mu      sync.Mutex
	pending []func()
}

// RequestFrame queues fn for the next Run.
func (f *ManualFrames) RequestFrame(fn func()) {
	f.mu.Lock()
	f.pending = append(f.pending, fn)
	f.mu.Unlock()
}

// Pending returns the number of queued callbacks.
func (f *ManualFrames) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Run runs the callbacks queued so far and returns how many ran. Callbacks
// requested while running wait for the next Run.
func (f *ManualFrames) Run() int {
	f.mu.Lock()
	fns := f.pending
	f.pending = nil
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}
