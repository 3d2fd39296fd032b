package engine_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/vmirror/pkg/engine"
	"github.com/vango-dev/vmirror/pkg/memdom"
	"github.com/vango-dev/vmirror/pkg/vdom"
)

type fixture struct {
	doc    *memdom.Document
	frames *vdom.ManualFrames
	e      *engine.Engine
	logs   *bytes.Buffer
}

func newFixture() *fixture {
	doc := memdom.New()
	frames := &vdom.ManualFrames{}
	logs := &bytes.Buffer{}
	return &fixture{
		doc:    doc,
		frames: frames,
		logs:   logs,
		e: engine.New(doc, engine.Options{
			Container: doc.Body(),
			IDs:       vdom.NewIDGenerator(),
			Frames:    frames,
			Logger:    slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		}),
	}
}

func (f *fixture) body(t *testing.T) string {
	t.Helper()
	s, err := f.doc.InnerHTML(f.doc.Body())
	if err != nil {
		t.Fatalf("InnerHTML() error = %v", err)
	}
	return s
}

func (f *fixture) list(keys ...string) *vdom.Node {
	b := f.e.Builder()
	items := make([]*vdom.Node, len(keys))
	for i, k := range keys {
		items[i] = b.El("li", vdom.Key(k), k)
	}
	return b.El("ul", items)
}

func TestFlushCoalescing(t *testing.T) {
	f := newFixture()
	b := f.e.Builder()
	a := b.El("li", vdom.Key("a"), "A")
	c := b.El("li", vdom.Key("c"), "C")
	f.e.SetRoot(b.El("ul", a, c))
	if got := f.frames.Run(); got != 1 {
		t.Fatalf("frames after SetRoot = %d, want 1", got)
	}
	f.doc.Reset()

	ha := f.e.TakeHandle(a)
	hc := f.e.TakeHandle(c)
	if !ha.Patch(b.El("li", vdom.Key("a"), "A2")) {
		t.Fatal("first Patch() = false")
	}
	if !hc.Patch(b.El("li", vdom.Key("c"), "C2")) {
		t.Fatal("second Patch() = false")
	}
	if got := f.frames.Pending(); got != 1 {
		t.Fatalf("frames requested = %d, want 1", got)
	}
	if len(f.doc.Log()) != 0 {
		t.Fatalf("target touched before frame: %v", f.doc.Log())
	}

	f.frames.Run()
	want := []string{
		`set_text_content #bh-3 "A2"`,
		`set_text_content #bh-5 "C2"`,
	}
	if diff := cmp.Diff(want, f.doc.Log()); diff != "" {
		t.Errorf("target calls mismatch (-want +got):\n%s", diff)
	}
	if f.e.Dirty() {
		t.Error("Dirty() = true after frame")
	}
}

func TestHandleInvalidation(t *testing.T) {
	f := newFixture()
	b := f.e.Builder()
	child := b.El("span", "x")
	root := f.e.SetRoot(b.El("div", child))
	h := f.e.TakeHandle(child)
	if !h.Valid() {
		t.Fatal("handle on attached child is not valid")
	}

	if !root.Patch(b.El("section", b.El("span", "y"))) {
		t.Fatal("root Patch() = false")
	}
	if h.Valid() {
		t.Error("child handle valid after tag-changing replace")
	}
	if h.Patch(b.El("span", "z")) {
		t.Error("Patch() on inert handle = true, want false")
	}
	if root.Valid() {
		t.Error("root handle valid after its node was replaced")
	}

	if err := f.e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	want := `<section id="bh-1"><span id="bh-2"><span id="bh-3">y</span></span></section>`
	if got := f.body(t); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestKeyedScenario(t *testing.T) {
	f := newFixture()
	root := f.e.SetRoot(f.list("1", "2"))
	f.frames.Run()

	if !root.Patch(f.list("2", "3")) {
		t.Fatal("Patch() = false")
	}
	f.frames.Run()

	want := `<ul id="bh-1"><li id="bh-4"><span id="bh-5">2</span></li><li id="bh-6"><span id="bh-7">3</span></li></ul>`
	if got := f.body(t); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	markup, err := f.e.Markup()
	if err != nil {
		t.Fatalf("Markup() error = %v", err)
	}
	if markup != want {
		t.Errorf("Markup() = %q, want %q", markup, want)
	}
}

func TestFrameInertAfterFlush(t *testing.T) {
	f := newFixture()
	root := f.e.SetRoot(f.list("1"))
	f.frames.Run()

	root.Patch(f.list("1", "2"))
	if err := f.e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	f.doc.Reset()

	if got := f.frames.Run(); got != 1 {
		t.Fatalf("frames run = %d, want 1", got)
	}
	if got := f.doc.Log(); len(got) != 0 {
		t.Errorf("stale frame issued calls: %v", got)
	}
}

func TestUnchangedPatchSchedulesNothing(t *testing.T) {
	f := newFixture()
	root := f.e.SetRoot(f.list("1"))
	f.frames.Run()

	if !root.Patch(f.list("1")) {
		t.Fatal("Patch() = false")
	}
	if f.e.Scheduled() {
		t.Error("Scheduled() = true after a patch that changed nothing")
	}
}

func TestNotMounted(t *testing.T) {
	f := newFixture()
	if _, err := f.e.Element(); !errors.Is(err, vdom.ErrNotMounted) {
		t.Errorf("Element() error = %v, want ErrNotMounted", err)
	}
	if _, err := f.e.Markup(); !errors.Is(err, vdom.ErrNotMounted) {
		t.Errorf("Markup() error = %v, want ErrNotMounted", err)
	}

	f.e.SetRoot(f.list("1"))
	if err := f.e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	el, err := f.e.Element()
	if err != nil {
		t.Fatalf("Element() error = %v", err)
	}
	html, err := f.doc.OuterHTML(el)
	if err != nil {
		t.Fatalf("OuterHTML() error = %v", err)
	}
	if !strings.HasPrefix(html, `<ul id="bh-1">`) {
		t.Errorf("root element = %q", html)
	}
}

func TestFrameFlushErrorLogged(t *testing.T) {
	f := newFixture()
	root := f.e.SetRoot(f.list("1"))
	f.frames.Run()

	boom := errors.New("boom")
	f.doc.Fault = func(op, target string) error {
		if op == "insert_adjacent_html" {
			return boom
		}
		return nil
	}
	root.Patch(f.list("1", "2"))
	f.frames.Run()

	if !strings.Contains(f.logs.String(), "flush failed") {
		t.Errorf("log = %q, want a flush failure", f.logs.String())
	}
	err := f.e.Flush(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Flush() error = %v, want %v", err, boom)
	}
	if !errors.Is(err, vdom.ErrTarget) {
		t.Errorf("Flush() error = %v, want ErrTarget", err)
	}
}

func TestHandleCloneRelease(t *testing.T) {
	f := newFixture()
	b := f.e.Builder()
	child := b.El("p", "x")
	f.e.SetRoot(b.El("div", child))

	h := f.e.TakeHandle(child)
	c := h.Clone()
	h.Release()
	h.Release()
	if h.Valid() {
		t.Error("released handle is valid")
	}
	if h.Patch(b.El("p", "y")) {
		t.Error("Patch() on released handle = true")
	}
	if !c.Valid() {
		t.Fatal("clone invalid after original released")
	}
	if !c.Patch(b.El("p", "y")) {
		t.Error("Patch() through clone = false")
	}
	if got := c.Node(); got != child {
		t.Errorf("Node() = %p, want %p", got, child)
	}

	outside := f.e.TakeHandle(b.El("p"))
	if outside.Valid() || outside.Patch(b.El("p", "z")) {
		t.Error("handle on detached node is not inert")
	}
}

func TestSetRootRejectsAttachedNode(t *testing.T) {
	f := newFixture()
	b := f.e.Builder()
	child := b.El("span")
	b.El("div", child)
	if h := f.e.SetRoot(child); h.Valid() {
		t.Error("SetRoot() with attached node returned a valid handle")
	}
	if f.e.Dirty() {
		t.Error("Dirty() = true after rejected SetRoot")
	}
}

func TestPatchRejectsRoot(t *testing.T) {
	f := newFixture()
	b := f.e.Builder()
	child := b.El("span")
	root := b.El("div", child)
	rh := f.e.SetRoot(root)
	if err := f.e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	h := f.e.TakeHandle(child)
	if h.Patch(root) {
		t.Error("child Patch() with the root node = true, want false")
	}
	if f.e.SetRoot(root).Valid() {
		t.Error("SetRoot() with the current root returned a valid handle")
	}
	if !rh.Valid() || !h.Valid() {
		t.Error("rejected calls invalidated existing handles")
	}
	if err := f.e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got, want := f.body(t), `<div id="bh-1"><span id="bh-2"></span></div>`; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestImmutableReplacedWithinOneFlush(t *testing.T) {
	f := newFixture()
	b := f.e.Builder()
	root := f.e.SetRoot(b.El("main", b.El("span", vdom.Immutable(), "old")))
	if err := f.e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	section := b.El("section", "mid")
	if !root.Patch(b.El("main", section)) {
		t.Fatal("root Patch() = false")
	}
	if !f.e.TakeHandle(section).Patch(b.El("span", "new")) {
		t.Fatal("section Patch() = false")
	}
	if err := f.e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := `<main id="bh-1"><span id="bh-2"><span id="bh-3">new</span></span></main>`
	if got := f.body(t); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	markup, err := f.e.Markup()
	if err != nil {
		t.Fatalf("Markup() error = %v", err)
	}
	if markup != want {
		t.Errorf("Markup() = %q, want %q", markup, want)
	}
}

type committingDoc struct {
	*memdom.Document
	commits int
}

func (d *committingDoc) Commit(context.Context) error {
	d.commits++
	return nil
}

func TestCommitAfterFlush(t *testing.T) {
	doc := &committingDoc{Document: memdom.New()}
	e := engine.New(doc, engine.Options{Container: doc.Body(), IDs: vdom.NewIDGenerator()})
	ctx := context.Background()

	e.SetRoot(e.Builder().El("div"))
	for i := 0; i < 2; i++ {
		if err := e.Flush(ctx); err != nil {
			t.Fatalf("Flush() error = %v", err)
		}
	}
	if doc.commits != 1 {
		t.Errorf("commits = %d, want 1", doc.commits)
	}
}

func TestTickerFrames(t *testing.T) {
	frames := engine.NewTickerFrames(time.Millisecond)
	defer frames.Stop()

	done := make(chan int, 2)
	frames.RequestFrame(func() { done <- 1 })
	frames.RequestFrame(func() { done <- 2 })

	for want := 1; want <= 2; want++ {
		select {
		case got := <-done:
			if got != want {
				t.Errorf("callback = %d, want %d", got, want)
			}
		case <-time.After(time.Second):
			t.Fatal("frame did not run")
		}
	}
}

func TestTickerFramesStop(t *testing.T) {
	frames := engine.NewTickerFrames(10 * time.Millisecond)
	ran := make(chan struct{}, 1)
	frames.RequestFrame(func() { ran <- struct{}{} })
	frames.Stop()
	frames.RequestFrame(func() { ran <- struct{}{} })

	select {
	case <-ran:
		t.Error("callback ran after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestView(t *testing.T) {
	f := newFixture()
	f.e.View(func(markup string, mounted bool) {
		if mounted || markup != "" {
			t.Errorf("View() before flush = %q, %v", markup, mounted)
		}
	})
	f.e.SetRoot(f.list("1"))
	f.frames.Run()
	f.e.View(func(markup string, mounted bool) {
		want := `<ul id="bh-1"><li id="bh-2"><span id="bh-3">1</span></li></ul>`
		if !mounted || markup != want {
			t.Errorf("View() = %q, %v; want %q, true", markup, mounted, want)
		}
	})
}
