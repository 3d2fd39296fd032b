package engine

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vmirror/pkg/vdom"
)

// Handle is a reference-counted capability to a node of the pending tree.
//
// A handle goes inert once its node leaves the tree: a replacement of the
// node or an ancestor, a positional overwrite or a lost key. Patching an
// inert handle does nothing and reports false.
type Handle struct {
	e        *Engine
	ref      vdom.Ref
	released bool
}

// Patch merges n into the bound node and schedules a flush. It reports
// whether the bound node was still part of the tree. n must not be attached
// to another node.
func (h *Handle) Patch(n *vdom.Node) bool {
	return h.PatchContext(context.Background(), n)
}

// PatchContext is Patch with a context for tracing.
func (h *Handle) PatchContext(ctx context.Context, n *vdom.Node) bool {
	e := h.e
	_, span := e.tracer.Start(ctx, "vmirror.handle.patch",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	ok := !h.released && e.pending.Patch(h.ref, n)
	if ok && e.pending.Dirty() {
		e.scheduleLocked()
	}
	span.SetAttributes(attribute.Bool("vmirror.applied", ok))
	e.metrics.recordPatch(ok)
	e.observeLocked()
	return ok
}

// Valid reports whether the bound node is still part of the tree.
func (h *Handle) Valid() bool {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()
	if h.released {
		return false
	}
	_, ok := h.e.pending.Resolve(h.ref)
	return ok
}

// Node returns the bound node, or nil when the handle is inert.
func (h *Handle) Node() *vdom.Node {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()
	if h.released {
		return nil
	}
	n, _ := h.e.pending.Resolve(h.ref)
	return n
}

// Clone returns a new handle to the same node. Each clone must be released
// separately.
func (h *Handle) Clone() *Handle {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()
	if h.released || !h.e.pending.Retain(h.ref) {
		return &Handle{e: h.e}
	}
	return &Handle{e: h.e, ref: h.ref}
}

// Release drops the handle's reference. The handle is inert afterwards.
// Releasing twice is a no-op.
func (h *Handle) Release() {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	h.e.pending.Release(h.ref)
	h.e.observeLocked()
}
