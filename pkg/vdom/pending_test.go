package vdom

import "testing"

// nullTarget accepts every call and resolves every id.
type nullTarget struct{ calls int }

func (t *nullTarget) SetAttribute(Element, string, string) error { t.calls++; return nil }
func (t *nullTarget) RemoveAttribute(Element, string) error      { t.calls++; return nil }
func (t *nullTarget) SetTextContent(Element, string) error       { t.calls++; return nil }
func (t *nullTarget) InsertAdjacentHTML(Element, Position, string) error {
	t.calls++
	return nil
}
func (t *nullTarget) InsertAdjacentElement(Element, Position, Element) error {
	t.calls++
	return nil
}
func (t *nullTarget) SetOuterHTML(Element, string) error       { t.calls++; return nil }
func (t *nullTarget) Remove(Element) error                     { t.calls++; return nil }
func (t *nullTarget) GetElementByID(id string) (Element, bool) { return id, true }

func commit(t *testing.T, b *Builder, p *Pending) {
	t.Helper()
	r := NewReconciler(&nullTarget{}, b.Strings(), b.Classes(), ReconcilerConfig{IDs: NewIDGenerator()})
	if _, err := r.Mount("root", p.Root()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
}

func TestHandleInvalidatedByReplace(t *testing.T) {
	b := newBuilder()
	var p Pending
	child := b.El("span", "x")
	rootRef := p.SetRoot(b.El("div", child))

	childRef, ok := p.Bind(child)
	if !ok {
		t.Fatal("Bind(child) failed")
	}

	if !p.Patch(rootRef, b.El("section")) {
		t.Fatal("Patch(root) = false")
	}
	if _, ok := p.Resolve(childRef); ok {
		t.Error("child ref still resolves after tag-changing replace")
	}
	if p.Patch(childRef, b.El("span", "y")) {
		t.Error("Patch through stale ref = true, want false")
	}
	if _, ok := p.Resolve(rootRef); ok {
		t.Error("root ref resolves after its node was replaced")
	}
	if got := b.Strings().String(p.Root().Tag()); got != "section" {
		t.Errorf("root tag = %q, want section", got)
	}
}

func TestKeyedMergeKeepsHandles(t *testing.T) {
	b := newBuilder()
	var p Pending
	li1 := b.El("li", Key("1"), "A")
	li2 := b.El("li", Key("2"), "B")
	rootRef := p.SetRoot(b.El("ul", li1, li2))
	ref1, _ := p.Bind(li1)
	ref2, _ := p.Bind(li2)

	p.Patch(rootRef, b.El("ul",
		b.El("li", Key("2"), "B2"),
		b.El("li", Key("3"), "C"),
	))

	n, ok := p.Resolve(ref2)
	if !ok || n != li2 {
		t.Fatal("keyed node lost its identity")
	}
	if got := n.Children()[0].Text(); got != "B2" {
		t.Errorf("merged text = %q, want B2", got)
	}
	if _, ok := p.Resolve(ref1); ok {
		t.Error("ref to removed key still resolves")
	}
	if got := p.Root().Children()[0]; got != li2 {
		t.Error("li2 not moved to the front")
	}
	if li2.Parent() != p.Root() {
		t.Error("li2 parent not linked")
	}
}

func TestPositionalTailDropsHandles(t *testing.T) {
	b := newBuilder()
	var p Pending
	first := b.El("li")
	span := b.El("span")
	rootRef := p.SetRoot(b.El("div", first, span))
	firstRef, _ := p.Bind(first)
	spanRef, _ := p.Bind(span)

	p.Patch(rootRef, b.El("div", b.El("li"), b.El("p")))

	if _, ok := p.Resolve(firstRef); !ok {
		t.Error("matching prefix lost its handle")
	}
	if _, ok := p.Resolve(spanRef); ok {
		t.Error("overwritten positional node still resolves")
	}
}

func TestMergeDirtyTracking(t *testing.T) {
	b := newBuilder()
	var p Pending
	a := b.El("p", "a")
	other := b.El("p", "b")
	rootRef := p.SetRoot(b.El("div", a, other))
	commit(t, b, &p)

	if p.Dirty() {
		t.Fatal("tree dirty after commit")
	}

	aRef, _ := p.Bind(a)
	p.Patch(aRef, b.El("p", "a"))
	if p.Dirty() {
		t.Error("identical patch marked the tree dirty")
	}

	p.Patch(aRef, b.El("p", "changed"))
	if !p.Dirty() || !a.Dirty() {
		t.Error("changed node or root not dirty")
	}
	if other.Dirty() {
		t.Error("untouched sibling marked dirty")
	}

	if !p.Patch(rootRef, b.El("div", b.El("p", "changed"), b.El("p", "b"))) {
		t.Error("Patch(root) = false")
	}
}

func TestImmutableMerge(t *testing.T) {
	b := newBuilder()
	var p Pending
	frozen := b.El("div", Immutable(), "a")
	p.SetRoot(b.El("main", frozen))
	commit(t, b, &p)

	ref, _ := p.Bind(frozen)
	p.Patch(ref, b.El("div", "b"))

	if got := frozen.Children()[0].Text(); got != "a" {
		t.Errorf("immutable text = %q, want a", got)
	}
	if p.Dirty() {
		t.Error("merge into immutable node dirtied the tree")
	}
}

func TestImmutableSkippedByReconciler(t *testing.T) {
	b := newBuilder()
	var p Pending
	text := b.Text("a")
	frozen := b.El("div", Immutable(), text)
	p.SetRoot(b.El("main", frozen))

	target := &nullTarget{}
	r := NewReconciler(target, b.Strings(), b.Classes(), ReconcilerConfig{IDs: NewIDGenerator()})
	d, err := r.Mount("root", p.Root())
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	ref, ok := p.Bind(text)
	if !ok {
		t.Fatal("Bind(text) failed")
	}
	if !p.Patch(ref, b.Text("b")) {
		t.Fatal("Patch() = false")
	}
	if !frozen.Dirty() {
		t.Fatal("patch below an immutable node did not dirty it")
	}

	target.calls = 0
	if _, err := r.Patch(d, p.Root()); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if target.calls != 0 {
		t.Errorf("target calls = %d, want 0", target.calls)
	}
	if got := d.Children()[0].Children()[0].Text(); got != "a" {
		t.Errorf("committed text = %q, want a", got)
	}
}

func TestPatchRejectsAttachedNode(t *testing.T) {
	b := newBuilder()
	var p Pending
	child := b.El("b")
	ref := p.SetRoot(b.El("div", child))
	if p.Patch(ref, child) {
		t.Error("Patch() with an attached node = true")
	}

	childRef, ok := p.Bind(child)
	if !ok {
		t.Fatal("Bind(child) failed")
	}
	root := p.Root()
	if p.Patch(childRef, root) {
		t.Error("Patch() with the root node = true")
	}
	if root.Parent() != nil || root.Children()[0] != child {
		t.Error("rejected Patch() modified the tree")
	}
}

func TestBindOutsideTree(t *testing.T) {
	b := newBuilder()
	var p Pending
	if _, ok := p.Bind(b.El("div")); ok {
		t.Error("Bind() on empty Pending = true")
	}
	p.SetRoot(b.El("div"))
	if _, ok := p.Bind(b.El("div")); ok {
		t.Error("Bind() of a detached node = true")
	}
}

func TestArenaRefCounting(t *testing.T) {
	b := newBuilder()
	var a Arena
	n := b.El("div")

	r1 := a.Bind(n)
	r2 := a.Bind(n)
	if r1 != r2 {
		t.Errorf("Bind() twice = %v, %v, want same ref", r1, r2)
	}
	if !a.Retain(r1) {
		t.Error("Retain() = false")
	}
	a.Release(r1)
	a.Release(r1)
	if _, ok := a.Resolve(r1); !ok {
		t.Error("ref released before its last reference")
	}
	a.Release(r1)
	if _, ok := a.Resolve(r1); ok {
		t.Error("ref resolves after last Release")
	}
	if a.Live() != 0 {
		t.Errorf("Live() = %d, want 0", a.Live())
	}

	m := b.El("span")
	r3 := a.Bind(m)
	if r3.slot != r1.slot {
		t.Errorf("slot not reused: %d vs %d", r3.slot, r1.slot)
	}
	if _, ok := a.Resolve(r1); ok {
		t.Error("stale ref resolves to the slot's new node")
	}
	a.Release(r1)
	if _, ok := a.Resolve(r3); !ok {
		t.Error("stale Release freed a live slot")
	}
	if a.Retain(Ref{}) {
		t.Error("Retain(zero) = true")
	}
}
