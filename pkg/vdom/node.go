package vdom

import (
	"github.com/vango-dev/vmirror/pkg/attrs"
	"github.com/vango-dev/vmirror/pkg/intern"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota // <div>, <li>, etc.
	KindText                // Text, rendered inside a <span>
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// Node is a node of the pending tree.
//
// A Node is owned by the tree it is attached to and must not be modified
// after it has been handed to a Pending tree.
type Node struct {
	kind      Kind
	key       string
	immutable bool
	dirty     bool

	// Element
	tag      intern.Token
	class    intern.Token
	attrs    *attrs.Map
	children []*Node

	// Text
	text string
	raw  bool

	parent *Node
	slot   uint32 // arena slot + 1, 0 when unbound
}

// Kind returns the node type.
func (n *Node) Kind() Kind { return n.kind }

// Key returns the reconciliation key, or "" for positional identity.
func (n *Node) Key() string { return n.key }

// Immutable reports whether the subtree is excluded from diffing.
func (n *Node) Immutable() bool { return n.immutable }

// Dirty reports whether the node has changes not yet committed.
func (n *Node) Dirty() bool { return n.dirty }

// Tag returns the tag token of an element.
func (n *Node) Tag() intern.Token { return n.tag }

// Class returns the class set token of an element.
func (n *Node) Class() intern.Token { return n.class }

// Attrs returns the attribute map of an element.
func (n *Node) Attrs() *attrs.Map { return n.attrs }

// Children returns the child list of an element.
func (n *Node) Children() []*Node { return n.children }

// Text returns the content of a text node.
func (n *Node) Text() string { return n.text }

// Raw reports whether a text node holds markup that is written unescaped.
func (n *Node) Raw() bool { return n.raw }

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Walk calls fn for n and every descendant in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// markDirty marks n and its ancestors as changed.
func markDirty(n *Node) {
	n.dirty = true
	for p := n.parent; p != nil && !p.dirty; p = p.parent {
		p.dirty = true
	}
}

// keyed is the common view of Node and DOMNode used for matching.
type keyed interface {
	matchKey() (Kind, string, intern.Token)
}

func (n *Node) matchKey() (Kind, string, intern.Token) { return n.kind, n.key, n.tag }

// nodesMatch reports whether b can be merged into a in place: equal keys
// (including both absent), equal kinds and, for elements, equal tags.
func nodesMatch(a, b keyed) bool {
	ak, akey, atag := a.matchKey()
	bk, bkey, btag := b.matchKey()
	if akey != bkey || ak != bk {
		return false
	}
	return ak != KindElement || atag == btag
}

func hasKeys[T interface{ Key() string }](nodes []T) bool {
	for _, n := range nodes {
		if n.Key() != "" {
			return true
		}
	}
	return false
}
