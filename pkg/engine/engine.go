// Package engine ties a pending tree, its committed mirror and an external
// target together.
//
// Application code builds nodes with the engine's Builder, installs a root
// with SetRoot and keeps Handles to the subtrees it intends to update.
// Handle patches are merged into the pending tree right away while the
// reconciliation against the target is deferred to the next frame, so any
// number of patches between two frames produce a single flush.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	vmerrors "github.com/vango-dev/vmirror/internal/errors"
	"github.com/vango-dev/vmirror/pkg/classes"
	"github.com/vango-dev/vmirror/pkg/intern"
	"github.com/vango-dev/vmirror/pkg/vdom"
)

// Default tracer name for engine spans.
const defaultTracerName = "vmirror"

// Options configures an Engine.
type Options struct {
	// Container is the target element the root is mounted into.
	Container vdom.Element

	// Prefix is prepended to rendered ids (default: "bh").
	Prefix string

	// IDs issues node ids. Defaults to a process-wide generator.
	IDs *vdom.IDGenerator

	// Frames schedules deferred flushes. Without one, callers flush
	// explicitly.
	Frames vdom.FrameScheduler

	// Strings and Classes are shared with other engines when set.
	// Each engine gets its own tables otherwise.
	Strings *intern.Interner
	Classes *classes.Registry

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *Metrics

	// TracerName is the name of the tracer (default: "vmirror").
	TracerName string
}

// Engine owns one pending tree and its committed counterpart. All methods
// are safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	target    vdom.Target
	container vdom.Element
	builder   *vdom.Builder
	rec       *vdom.Reconciler
	pending   vdom.Pending
	committed *vdom.DOMNode
	frames    vdom.FrameScheduler
	scheduled bool

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// New creates an engine writing to target.
func New(target vdom.Target, opts Options) *Engine {
	if opts.Strings == nil {
		opts.Strings = intern.New()
	}
	if opts.Classes == nil {
		opts.Classes = classes.New(opts.Strings)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TracerName == "" {
		opts.TracerName = defaultTracerName
	}

	out := target
	if opts.Metrics != nil {
		out = countingTarget{Target: target, m: opts.Metrics.mutations}
	}
	e := &Engine{
		target:    target,
		container: opts.Container,
		builder:   vdom.NewBuilder(opts.Strings, opts.Classes),
		frames:    opts.Frames,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		tracer:    otel.Tracer(opts.TracerName),
	}
	e.rec = vdom.NewReconciler(out, opts.Strings, opts.Classes, vdom.ReconcilerConfig{
		Prefix: opts.Prefix,
		IDs:    opts.IDs,
	})
	return e
}

// Builder returns the builder for nodes handed to this engine.
func (e *Engine) Builder() *vdom.Builder { return e.builder }

// SetRoot replaces the pending root with n, schedules a flush and returns a
// handle to the new root. Handles into the previous tree become inert.
func (e *Engine) SetRoot(n *vdom.Node) *Handle {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n == nil || n.Parent() != nil || n == e.pending.Root() {
		return &Handle{e: e}
	}
	replaced := e.pending.Root() != nil
	ref := e.pending.SetRoot(n)
	e.logger.Debug("root set", "replaced", replaced, "tag", e.builder.Strings().String(n.Tag()))
	e.scheduleLocked()
	e.observeLocked()
	return &Handle{e: e, ref: ref}
}

// TakeHandle returns a handle bound to n. The handle is inert if n is not
// part of the pending tree.
func (e *Engine) TakeHandle(n *vdom.Node) *Handle {
	e.mu.Lock()
	defer e.mu.Unlock()

	ref, _ := e.pending.Bind(n)
	e.observeLocked()
	return &Handle{e: e, ref: ref}
}

// Dirty reports whether the pending tree has changes not yet flushed.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending.Dirty()
}

// Scheduled reports whether a frame flush is outstanding.
func (e *Engine) Scheduled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheduled
}

// Flush reconciles the committed tree with the pending tree. The first flush
// mounts the root into the container. A target that implements
// vdom.Committer is committed after every flush that issued work, including
// failed ones, so that it mirrors whatever was applied.
//
// A failed flush may leave the target partially synchronized.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduled = false
	return e.flushLocked(ctx)
}

func (e *Engine) flushLocked(ctx context.Context) error {
	root := e.pending.Root()
	if root == nil || (e.committed != nil && !root.Dirty()) {
		return nil
	}

	mount := e.committed == nil
	ctx, span := e.tracer.Start(ctx, "vmirror.flush",
		trace.WithAttributes(attribute.Bool("vmirror.mount", mount)),
	)
	defer span.End()

	start := time.Now()
	var err error
	if mount {
		var d *vdom.DOMNode
		d, err = e.rec.Mount(e.container, root)
		if err == nil {
			e.committed = d
			e.logger.Debug("root mounted", "id", vdom.FormatID(e.rec.Prefix(), d.ID()))
		}
	} else {
		var d *vdom.DOMNode
		d, err = e.rec.Patch(e.committed, root)
		if d != nil {
			e.committed = d
		}
	}

	if c, ok := e.target.(vdom.Committer); ok {
		if cerr := c.Commit(ctx); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}

	if e.metrics != nil {
		e.metrics.flushDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			e.metrics.flushErrors.Inc()
		} else {
			e.metrics.flushes.Inc()
		}
	}
	e.observeLocked()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if e.committed != nil {
		span.SetAttributes(attribute.Int("vmirror.nodes", e.committed.Len()))
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Markup returns the markup of the committed tree.
func (e *Engine) Markup() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.committed == nil {
		return "", vmerrors.New("R004").WithDetail("nothing has been flushed")
	}
	return e.rec.Markup(e.committed), nil
}

// View calls fn with the committed markup while holding the engine lock,
// so no flush runs until fn returns. mounted is false before the first
// flush. fn must not call back into the engine.
func (e *Engine) View(fn func(markup string, mounted bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.committed == nil {
		fn("", false)
		return
	}
	fn(e.rec.Markup(e.committed), true)
}

// Element returns the live element of the committed root.
func (e *Engine) Element() (vdom.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.committed == nil {
		return nil, vmerrors.New("R004").WithDetail("nothing has been flushed")
	}
	return e.rec.Element(e.committed)
}

// scheduleLocked requests a frame unless one is already outstanding.
func (e *Engine) scheduleLocked() {
	if e.scheduled || e.frames == nil {
		return
	}
	e.scheduled = true
	e.frames.RequestFrame(e.frame)
}

// frame is the frame callback. It does nothing if a flush already ran
// since it was requested.
func (e *Engine) frame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.scheduled {
		return
	}
	e.scheduled = false
	if err := e.flushLocked(context.Background()); err != nil {
		e.logger.Error("flush failed", "error", err)
	}
}

func (e *Engine) observeLocked() {
	if e.metrics == nil {
		return
	}
	e.metrics.handles.Set(float64(e.pending.Live()))
	e.metrics.tokens.Set(float64(e.builder.Strings().Len()))
	if e.committed != nil {
		e.metrics.nodes.Set(float64(e.committed.Len()))
	}
}
