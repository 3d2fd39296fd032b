package vdom

// Ref is a generation-checked reference to a node of a pending tree. The
// zero Ref resolves to nothing.
type Ref struct {
	slot uint32
	gen  uint32
}

// IsZero reports whether r is the zero Ref.
func (r Ref) IsZero() bool { return r.slot == 0 }

type arenaSlot struct {
	node *Node
	gen  uint32
	refs int
}

// Arena maps Refs to nodes. Dropping a node bumps the generation of its
// slot, so every outstanding Ref to it stops resolving. Slots are reused.
type Arena struct {
	slots []arenaSlot
	free  []uint32
}

// Bind returns a Ref to n, sharing the slot of earlier Refs to n.
func (a *Arena) Bind(n *Node) Ref {
	if n.slot != 0 {
		s := &a.slots[n.slot-1]
		s.refs++
		return Ref{slot: n.slot, gen: s.gen}
	}

	var idx uint32
	if k := len(a.free); k > 0 {
		idx = a.free[k-1]
		a.free = a.free[:k-1]
	} else {
		a.slots = append(a.slots, arenaSlot{})
		idx = uint32(len(a.slots))
	}
	s := &a.slots[idx-1]
	s.node = n
	s.refs = 1
	n.slot = idx
	return Ref{slot: idx, gen: s.gen}
}

func (a *Arena) live(r Ref) *arenaSlot {
	if r.slot == 0 || int(r.slot) > len(a.slots) {
		return nil
	}
	s := &a.slots[r.slot-1]
	if s.gen != r.gen || s.node == nil {
		return nil
	}
	return s
}

// Resolve returns the node r refers to, if it was not dropped.
func (a *Arena) Resolve(r Ref) (*Node, bool) {
	s := a.live(r)
	if s == nil {
		return nil, false
	}
	return s.node, true
}

// Retain adds a reference to r's slot. It reports false if r is stale.
func (a *Arena) Retain(r Ref) bool {
	s := a.live(r)
	if s == nil {
		return false
	}
	s.refs++
	return true
}

// Release drops a reference to r's slot and frees the slot with the last
// one. Releasing a stale Ref is a no-op.
func (a *Arena) Release(r Ref) {
	s := a.live(r)
	if s == nil {
		return
	}
	s.refs--
	if s.refs <= 0 {
		a.unbind(r.slot)
	}
}

// Drop invalidates every Ref into the subtree rooted at n.
func (a *Arena) Drop(n *Node) {
	n.Walk(func(c *Node) {
		if c.slot != 0 {
			a.unbind(c.slot)
		}
	})
}

func (a *Arena) unbind(slot uint32) {
	s := &a.slots[slot-1]
	s.node.slot = 0
	s.node = nil
	s.refs = 0
	s.gen++
	a.free = append(a.free, slot)
}

// Live returns the number of bound slots.
func (a *Arena) Live() int {
	return len(a.slots) - len(a.free)
}
