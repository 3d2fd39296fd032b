package vdom

// Pending owns a pending tree and the arena of Refs into it.
//
// Merging follows the same matching rules as reconciliation. Nodes merged
// in place keep their identity and Refs. Nodes discarded by a replacement,
// a positional tail overwrite or a lost key are dropped from the arena.
type Pending struct {
	root  *Node
	arena Arena
}

// Root returns the root node, or nil.
func (p *Pending) Root() *Node { return p.root }

// Dirty reports whether the tree has changes not yet committed.
func (p *Pending) Dirty() bool { return p.root != nil && p.root.dirty }

// Live returns the number of bound Refs slots.
func (p *Pending) Live() int { return p.arena.Live() }

// SetRoot replaces the whole tree with n and returns a Ref to it. Refs into
// the previous tree stop resolving.
func (p *Pending) SetRoot(n *Node) Ref {
	if p.root != nil {
		p.discard(p.root)
	}
	n.parent = nil
	p.root = n
	markDirty(n)
	return p.arena.Bind(n)
}

// Bind returns a Ref to n. It reports false if n is not part of the tree.
func (p *Pending) Bind(n *Node) (Ref, bool) {
	if n == nil || p.root == nil {
		return Ref{}, false
	}
	top := n
	for top.parent != nil {
		top = top.parent
	}
	if top != p.root {
		return Ref{}, false
	}
	return p.arena.Bind(n), true
}

// Resolve returns the node r refers to.
func (p *Pending) Resolve(r Ref) (*Node, bool) { return p.arena.Resolve(r) }

// Retain adds a reference to r.
func (p *Pending) Retain(r Ref) bool { return p.arena.Retain(r) }

// Release drops a reference to r.
func (p *Pending) Release(r Ref) { p.arena.Release(r) }

// Patch merges next into the node r refers to. It reports false, leaving
// the tree untouched, if r no longer resolves or next is already part of
// a tree.
func (p *Pending) Patch(r Ref, next *Node) bool {
	old, ok := p.arena.Resolve(r)
	if !ok || next == nil || next.parent != nil || next == p.root {
		return false
	}
	parent := old.parent
	res := p.mergeNode(old, next)
	if res != old {
		res.parent = parent
		if parent == nil {
			p.root = res
		} else {
			for i, c := range parent.children {
				if c == old {
					parent.children[i] = res
					break
				}
			}
		}
	}
	if res.dirty {
		markDirty(res)
	}
	return true
}

// mergeNode merges next into old and returns the node standing in old's
// place. When the two do not match, old is discarded and next is returned;
// the caller links the result into the tree.
func (p *Pending) mergeNode(old, next *Node) *Node {
	if !nodesMatch(old, next) {
		p.discard(old)
		next.dirty = true
		return next
	}
	if old.immutable {
		return old
	}

	if old.immutable != next.immutable {
		old.immutable = next.immutable
		old.dirty = true
	}
	switch old.kind {
	case KindText:
		if old.text != next.text || old.raw != next.raw {
			old.text, old.raw = next.text, next.raw
			old.dirty = true
		}
	case KindElement:
		if !old.attrs.Equal(next.attrs) {
			old.attrs = next.attrs
			old.dirty = true
		}
		if old.class != next.class {
			old.class = next.class
			old.dirty = true
		}
		if p.mergeChildren(old, next.children) {
			old.dirty = true
		}
	}
	return old
}

// mergeChildren merges next into the children of parent and reports
// whether anything changed.
func (p *Pending) mergeChildren(parent *Node, next []*Node) bool {
	old := parent.children
	changed := false
	i := 0
	for i < len(old) && i < len(next) && nodesMatch(old[i], next[i]) {
		if p.mergeNode(old[i], next[i]).dirty {
			changed = true
		}
		i++
	}
	if i == len(old) && i == len(next) {
		return changed
	}

	out := make([]*Node, i, len(next))
	copy(out, old[:i])

	if !hasKeys(old[i:]) && !hasKeys(next[i:]) {
		for _, o := range old[i:] {
			p.discard(o)
		}
		for _, n := range next[i:] {
			out = append(out, p.adopt(parent, n))
		}
		parent.children = out
		return true
	}

	byKey := make(map[string]*Node, len(old)-i)
	for _, o := range old[i:] {
		if o.key == "" {
			continue
		}
		if _, dup := byKey[o.key]; !dup {
			byKey[o.key] = o
		}
	}
	kept := make(map[*Node]bool, len(byKey))
	for _, n := range next[i:] {
		o, ok := byKey[n.key]
		if n.key == "" || !ok {
			out = append(out, p.adopt(parent, n))
			continue
		}
		delete(byKey, n.key)
		kept[o] = true
		res := p.mergeNode(o, n)
		res.parent = parent
		out = append(out, res)
	}
	for _, o := range old[i:] {
		if !kept[o] {
			p.discard(o)
		}
	}
	parent.children = out
	return true
}

func (p *Pending) adopt(parent, n *Node) *Node {
	n.parent = parent
	n.dirty = true
	return n
}

func (p *Pending) discard(n *Node) {
	n.parent = nil
	p.arena.Drop(n)
}
