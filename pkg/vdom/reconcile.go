package vdom

import (
	"bytes"

	"github.com/vango-dev/vmirror/internal/errors"
	"github.com/vango-dev/vmirror/pkg/classes"
	"github.com/vango-dev/vmirror/pkg/intern"
)

// ReconcilerConfig configures a Reconciler.
type ReconcilerConfig struct {
	// Prefix is prepended to rendered ids. Defaults to DefaultPrefix.
	Prefix string

	// IDs issues node ids. Defaults to a process-wide generator.
	IDs *IDGenerator
}

// Reconciler synchronizes committed trees with pending trees by issuing
// calls on a Target. A Reconciler is not safe for concurrent use.
type Reconciler struct {
	target Target
	strs   *intern.Interner
	cls    *classes.Registry
	ids    *IDGenerator
	prefix string
	buf    bytes.Buffer
}

// NewReconciler creates a Reconciler writing to target. strs and cls must be
// the interner and registry the pending trees were built with.
func NewReconciler(target Target, strs *intern.Interner, cls *classes.Registry, cfg ReconcilerConfig) *Reconciler {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.IDs == nil {
		cfg.IDs = &processIDs
	}
	return &Reconciler{
		target: target,
		strs:   strs,
		cls:    cls,
		ids:    cfg.IDs,
		prefix: cfg.Prefix,
	}
}

// Prefix returns the id prefix.
func (r *Reconciler) Prefix() string { return r.prefix }

// Mount materializes n and appends its markup to container with a single
// insertion.
func (r *Reconciler) Mount(container Element, n *Node) (*DOMNode, error) {
	d := r.materialize(n)
	r.buf.Reset()
	r.writeNode(&r.buf, d)
	if err := r.target.InsertAdjacentHTML(container, BeforeEnd, r.buf.String()); err != nil {
		return nil, targetError("insert_adjacent_html", "container", err)
	}
	return d, nil
}

// Patch synchronizes the committed subtree d with n and returns the
// committed node that now mirrors n. The result differs from d when n could
// not be merged into d and d was replaced.
//
// A failed Patch may leave the target partially synchronized.
func (r *Reconciler) Patch(d *DOMNode, n *Node) (*DOMNode, error) {
	return r.patch(d, n)
}

// Element resolves the live element of d, caching it on success.
func (r *Reconciler) Element(d *DOMNode) (Element, error) {
	if d.el != nil {
		return d.el, nil
	}
	id := FormatID(r.prefix, d.id)
	el, ok := r.target.GetElementByID(id)
	if !ok {
		return nil, errors.New("R003").WithDetailf("#%s", id)
	}
	d.el = el
	return el, nil
}

func (r *Reconciler) patch(d *DOMNode, n *Node) (*DOMNode, error) {
	if d.clean(n) {
		return d, nil
	}
	if !nodesMatch(d, n) {
		return r.replace(d, n)
	}
	// Only the node committed as immutable is frozen. A different pending
	// node in its place is patched like any other.
	if d.immutable && d.src == n {
		n.dirty = false
		return d, nil
	}

	switch d.kind {
	case KindText:
		if err := r.patchText(d, n); err != nil {
			return d, err
		}
	case KindElement:
		if err := d.attrs.Patch(n.attrs, attrApplier{r: r, d: d}); err != nil {
			return d, err
		}
		if err := r.patchClass(d, n.class); err != nil {
			return d, err
		}
		if !IsVoid(d.tag) {
			if err := r.patchChildren(d, n.children); err != nil {
				return d, err
			}
		}
	}
	d.immutable = n.immutable
	d.src = n
	n.dirty = false
	return d, nil
}

func (r *Reconciler) patchText(d *DOMNode, n *Node) error {
	if d.text == n.text && d.raw == n.raw {
		return nil
	}
	el, err := r.Element(d)
	if err != nil {
		return err
	}
	if !d.raw && !n.raw {
		if err := r.target.SetTextContent(el, n.text); err != nil {
			return r.fail("set_text_content", d, err)
		}
		d.text = n.text
		return nil
	}

	// Raw markup cannot be set as text; re-render the wrapper under the
	// same id.
	d.text, d.raw = n.text, n.raw
	r.buf.Reset()
	r.writeNode(&r.buf, d)
	if err := r.target.SetOuterHTML(el, r.buf.String()); err != nil {
		return r.fail("set_outer_html", d, err)
	}
	d.el = nil
	return nil
}

func (r *Reconciler) patchClass(d *DOMNode, class intern.Token) error {
	if d.class == class {
		return nil
	}
	el, err := r.Element(d)
	if err != nil {
		return err
	}
	if class == 0 {
		err = r.target.RemoveAttribute(el, "class")
	} else {
		err = r.target.SetAttribute(el, "class", r.cls.Value(class))
	}
	if err != nil {
		return r.fail("class", d, err)
	}
	d.class = class
	return nil
}

// replace swaps the live element of d for freshly rendered markup of n.
func (r *Reconciler) replace(d *DOMNode, n *Node) (*DOMNode, error) {
	el, err := r.Element(d)
	if err != nil {
		return d, err
	}
	nd := r.materialize(n)
	r.buf.Reset()
	r.writeNode(&r.buf, nd)
	if err := r.target.SetOuterHTML(el, r.buf.String()); err != nil {
		return d, r.fail("set_outer_html", d, err)
	}
	return nd, nil
}

// materialize builds a committed subtree for n with fresh ids.
func (r *Reconciler) materialize(n *Node) *DOMNode {
	d := &DOMNode{
		id:        r.ids.Next(),
		kind:      n.kind,
		key:       n.key,
		immutable: n.immutable,
		tag:       n.tag,
		class:     n.class,
		attrs:     n.attrs.Clone(),
		text:      n.text,
		raw:       n.raw,
		src:       n,
	}
	n.dirty = false
	if n.kind == KindElement && !IsVoid(n.tag) && len(n.children) > 0 {
		d.children = make([]*DOMNode, len(n.children))
		for i, c := range n.children {
			d.children[i] = r.materialize(c)
		}
	}
	return d
}

func (r *Reconciler) fail(op string, d *DOMNode, err error) error {
	return targetError(op, "#"+FormatID(r.prefix, d.id), err)
}

func targetError(op, where string, err error) error {
	return errors.New("R007").WithDetailf("%s on %s", op, where).Wrap(err)
}

// attrApplier forwards attribute changes of d to its live element.
type attrApplier struct {
	r *Reconciler
	d *DOMNode
}

func (a attrApplier) SetAttribute(name, value string) error {
	el, err := a.r.Element(a.d)
	if err != nil {
		return err
	}
	if err := a.r.target.SetAttribute(el, name, value); err != nil {
		return a.r.fail("set_attribute", a.d, err)
	}
	return nil
}

func (a attrApplier) RemoveAttribute(name string) error {
	el, err := a.r.Element(a.d)
	if err != nil {
		return err
	}
	if err := a.r.target.RemoveAttribute(el, name); err != nil {
		return a.r.fail("remove_attribute", a.d, err)
	}
	return nil
}
