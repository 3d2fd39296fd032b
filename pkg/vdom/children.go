package vdom

// patchChildren reconciles the committed children of d with next.
//
// Matching pairs at the front are patched in place. The remaining tails are
// reconciled positionally when neither contains a keyed node, and by key
// otherwise.
func (r *Reconciler) patchChildren(d *DOMNode, next []*Node) error {
	old := d.children
	i := 0
	for i < len(old) && i < len(next) && nodesMatch(old[i], next[i]) {
		if _, err := r.patch(old[i], next[i]); err != nil {
			return err
		}
		i++
	}
	switch {
	case i == len(old) && i == len(next):
		return nil
	case len(next) == 0:
		return r.clearChildren(d)
	case !hasKeys(old[i:]) && !hasKeys(next[i:]):
		return r.positionalTail(d, i, next)
	default:
		return r.keyedTail(d, i, next)
	}
}

// clearChildren removes every child of d with one call.
func (r *Reconciler) clearChildren(d *DOMNode) error {
	el, err := r.Element(d)
	if err != nil {
		return err
	}
	if err := r.target.SetTextContent(el, ""); err != nil {
		return r.fail("set_text_content", d, err)
	}
	d.children = nil
	return nil
}

// positionalTail overwrites the old tail from i with the new tail one for
// one, then appends surplus new nodes or removes surplus old nodes.
func (r *Reconciler) positionalTail(d *DOMNode, i int, next []*Node) error {
	old := d.children
	overlap := min(len(old), len(next))
	out := make([]*DOMNode, i, max(len(old), len(next)))
	copy(out, old[:i])

	for j := i; j < overlap; j++ {
		nd, err := r.replace(old[j], next[j])
		if err != nil {
			d.children = append(out, old[j:]...)
			return err
		}
		out = append(out, nd)
	}

	if len(next) > overlap {
		el, err := r.Element(d)
		if err == nil {
			var fresh []*DOMNode
			fresh, err = r.insertFresh(el, BeforeEnd, next[overlap:])
			out = append(out, fresh...)
		}
		if err != nil {
			d.children = out
			return err
		}
	}

	for j := len(old) - 1; j >= overlap; j-- {
		if err := r.remove(old[j]); err != nil {
			d.children = append(out, old[overlap:j+1]...)
			return err
		}
	}
	d.children = out
	return nil
}

// keyedTail reconciles the tails from i by key. Old nodes claimed by a new
// node with the same key keep their live element and are relocated only
// when out of order. Unclaimed, unkeyed and duplicate-key old nodes are
// removed. Runs of fresh nodes are inserted with one call per run.
func (r *Reconciler) keyedTail(d *DOMNode, i int, next []*Node) error {
	old := d.children
	tail := old[i:]
	nextTail := next[i:]

	byKey := make(map[string]*DOMNode, len(tail))
	for _, o := range tail {
		if o.key == "" {
			continue
		}
		if _, dup := byKey[o.key]; !dup {
			byKey[o.key] = o
		}
	}

	claims := make([]*DOMNode, len(nextTail))
	claimed := make(map[*DOMNode]bool, len(nextTail))
	for j, n := range nextTail {
		if n.key == "" {
			continue
		}
		if o, ok := byKey[n.key]; ok {
			claims[j] = o
			claimed[o] = true
			delete(byKey, n.key)
		}
	}

	// Claimed old nodes in their current live order.
	survivors := make([]*DOMNode, 0, len(claimed))
	for _, o := range tail {
		if claimed[o] {
			survivors = append(survivors, o)
		}
	}
	placed := make(map[*DOMNode]bool, len(survivors))
	cur := 0

	out := make([]*DOMNode, i, len(next))
	copy(out, old[:i])
	var anchor *DOMNode
	if i > 0 {
		anchor = old[i-1]
	}

	var batch []*Node
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		el, pos, err := r.after(d, anchor)
		if err != nil {
			return err
		}
		fresh, err := r.insertFresh(el, pos, batch)
		if err != nil {
			return err
		}
		out = append(out, fresh...)
		anchor = fresh[len(fresh)-1]
		batch = batch[:0]
		return nil
	}

	for j, n := range nextTail {
		o := claims[j]
		if o == nil {
			batch = append(batch, n)
			continue
		}
		if err := flush(); err != nil {
			return err
		}

		for cur < len(survivors) && placed[survivors[cur]] {
			cur++
		}
		if cur < len(survivors) && survivors[cur] == o {
			cur++
		} else if err := r.move(d, anchor, o); err != nil {
			return err
		}
		placed[o] = true

		nd, err := r.patch(o, n)
		if err != nil {
			return err
		}
		out = append(out, nd)
		anchor = nd
	}
	if err := flush(); err != nil {
		return err
	}

	for _, o := range tail {
		if claimed[o] {
			continue
		}
		if err := r.remove(o); err != nil {
			return err
		}
	}
	d.children = out
	return nil
}

// after returns the element and position that place content directly after
// anchor, or first inside parent when anchor is nil.
func (r *Reconciler) after(parent, anchor *DOMNode) (Element, Position, error) {
	if anchor == nil {
		el, err := r.Element(parent)
		return el, AfterBegin, err
	}
	el, err := r.Element(anchor)
	return el, AfterEnd, err
}

// move relocates the live element of o directly after anchor.
func (r *Reconciler) move(parent, anchor, o *DOMNode) error {
	moved, err := r.Element(o)
	if err != nil {
		return err
	}
	el, pos, err := r.after(parent, anchor)
	if err != nil {
		return err
	}
	if err := r.target.InsertAdjacentElement(el, pos, moved); err != nil {
		return r.fail("insert_adjacent_element", o, err)
	}
	return nil
}

// insertFresh materializes nodes and inserts their markup with one call.
func (r *Reconciler) insertFresh(el Element, pos Position, nodes []*Node) ([]*DOMNode, error) {
	fresh := make([]*DOMNode, len(nodes))
	r.buf.Reset()
	for i, n := range nodes {
		fresh[i] = r.materialize(n)
		r.writeNode(&r.buf, fresh[i])
	}
	if err := r.target.InsertAdjacentHTML(el, pos, r.buf.String()); err != nil {
		return nil, targetError("insert_adjacent_html", pos.String(), err)
	}
	return fresh, nil
}

func (r *Reconciler) remove(d *DOMNode) error {
	el, err := r.Element(d)
	if err != nil {
		return err
	}
	if err := r.target.Remove(el); err != nil {
		return r.fail("remove", d, err)
	}
	return nil
}
