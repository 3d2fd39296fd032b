package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vango-dev/vmirror/pkg/protocol"
	"github.com/vango-dev/vmirror/pkg/vdom"
)

// DefaultContainer is the id of the element the page mounts into.
const DefaultContainer = "vmirror-root"

// Target is a vdom.Target for browsers mirroring the tree over a websocket.
// Elements are element ids. Calls are buffered and sent as one mutation
// frame per Commit.
//
// Removing or replacing an element drops the calls buffered earlier for
// that element, except insertions next to it.
type Target struct {
	container string
	hub       *Hub

	mu  sync.Mutex
	buf []protocol.Mutation
	seq uint64
}

var (
	_ vdom.Target    = (*Target)(nil)
	_ vdom.Committer = (*Target)(nil)
)

// NewTarget creates a target whose root mounts into the element with the
// given id. An empty container selects DefaultContainer.
func NewTarget(container string, logger *slog.Logger) *Target {
	if container == "" {
		container = DefaultContainer
	}
	return &Target{container: container, hub: NewHub(logger)}
}

// Container returns the mount container element.
func (t *Target) Container() vdom.Element { return t.container }

// Hub returns the connections frames are broadcast to.
func (t *Target) Hub() *Hub { return t.hub }

// Seq returns the sequence number of the last committed batch.
func (t *Target) Seq() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// Pending returns the buffered mutations.
func (t *Target) Pending() []protocol.Mutation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]protocol.Mutation(nil), t.buf...)
}

// GetElementByID resolves every non-empty id. The browser owns the live
// elements, so the id is the handle.
func (t *Target) GetElementByID(id string) (vdom.Element, bool) {
	return id, id != ""
}

func (t *Target) SetAttribute(el vdom.Element, name, value string) error {
	return t.push(el, protocol.Mutation{Op: protocol.OpSetAttribute, Name: name, Value: value})
}

func (t *Target) RemoveAttribute(el vdom.Element, name string) error {
	return t.push(el, protocol.Mutation{Op: protocol.OpRemoveAttribute, Name: name})
}

func (t *Target) SetTextContent(el vdom.Element, text string) error {
	return t.push(el, protocol.Mutation{Op: protocol.OpSetTextContent, Value: text})
}

func (t *Target) InsertAdjacentHTML(el vdom.Element, pos vdom.Position, html string) error {
	return t.push(el, protocol.Mutation{Op: protocol.OpInsertAdjacentHTML, Position: pos, Value: html})
}

func (t *Target) InsertAdjacentElement(el vdom.Element, pos vdom.Position, moved vdom.Element) error {
	id, err := elementID(moved)
	if err != nil {
		return err
	}
	return t.push(el, protocol.Mutation{Op: protocol.OpInsertAdjacentElement, Position: pos, Moved: id})
}

func (t *Target) SetOuterHTML(el vdom.Element, html string) error {
	return t.push(el, protocol.Mutation{Op: protocol.OpSetOuterHTML, Value: html})
}

func (t *Target) Remove(el vdom.Element) error {
	return t.push(el, protocol.Mutation{Op: protocol.OpRemove})
}

// Commit sends the buffered mutations as one frame. It does nothing when
// the buffer is empty.
func (t *Target) Commit(ctx context.Context) error {
	t.mu.Lock()
	if len(t.buf) == 0 {
		t.mu.Unlock()
		return nil
	}
	t.seq++
	batch := &protocol.Batch{Seq: t.seq, Mutations: t.buf}
	t.buf = nil
	t.mu.Unlock()

	return t.hub.Broadcast(ctx, protocol.NewFrame(protocol.FrameMutations, protocol.EncodeBatch(batch)))
}

// ResetFrame returns the frame that brings a new connection in sync with
// markup, the current committed markup.
func (t *Target) ResetFrame(markup string) *protocol.Frame {
	t.mu.Lock()
	seq := t.seq
	t.mu.Unlock()

	batch := &protocol.Batch{Seq: seq}
	if markup != "" {
		batch.Mutations = []protocol.Mutation{{
			Op:       protocol.OpInsertAdjacentHTML,
			Target:   t.container,
			Position: vdom.BeforeEnd,
			Value:    markup,
		}}
	}
	f := protocol.NewFrame(protocol.FrameMutations, protocol.EncodeBatch(batch))
	f.Flags = protocol.FlagReset
	return f
}

func (t *Target) push(el vdom.Element, m protocol.Mutation) error {
	id, err := elementID(el)
	if err != nil {
		return err
	}
	m.Target = id

	t.mu.Lock()
	defer t.mu.Unlock()
	if m.Op == protocol.OpRemove || m.Op == protocol.OpSetOuterHTML {
		t.buf = supersede(t.buf, id)
	}
	t.buf = append(t.buf, m)
	return nil
}

// supersede drops the mutations aimed at id whose effect is confined to the
// element itself.
func supersede(buf []protocol.Mutation, id string) []protocol.Mutation {
	out := buf[:0]
	for _, m := range buf {
		if m.Target == id && !outside(m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// outside reports whether m places content next to its target rather than
// into it.
func outside(m protocol.Mutation) bool {
	switch m.Op {
	case protocol.OpInsertAdjacentHTML, protocol.OpInsertAdjacentElement:
		return m.Position == vdom.BeforeBegin || m.Position == vdom.AfterEnd
	}
	return false
}

func elementID(el vdom.Element) (string, error) {
	id, ok := el.(string)
	if !ok || id == "" {
		return "", fmt.Errorf("live: element is %T, want a non-empty id", el)
	}
	return id, nil
}
