package vdom

import (
	"github.com/vango-dev/vmirror/pkg/attrs"
	"github.com/vango-dev/vmirror/pkg/intern"
)

// DOMNode is a node of the committed tree. It mirrors a live element of the
// external target.
type DOMNode struct {
	id        uint64
	kind      Kind
	key       string
	immutable bool

	tag      intern.Token
	class    intern.Token
	attrs    *attrs.Map
	children []*DOMNode

	text string
	raw  bool

	el  Element // resolved lazily by id
	src *Node   // pending node last synchronized into this node
}

// ID returns the numeric id rendered into the element's id attribute.
func (d *DOMNode) ID() uint64 { return d.id }

// Kind returns the node type.
func (d *DOMNode) Kind() Kind { return d.kind }

// Key returns the reconciliation key.
func (d *DOMNode) Key() string { return d.key }

// Tag returns the tag token of an element.
func (d *DOMNode) Tag() intern.Token { return d.tag }

// Class returns the class set token of an element.
func (d *DOMNode) Class() intern.Token { return d.class }

// Attrs returns the attribute map of an element.
func (d *DOMNode) Attrs() *attrs.Map { return d.attrs }

// Children returns the committed children.
func (d *DOMNode) Children() []*DOMNode { return d.children }

// Text returns the content of a text node.
func (d *DOMNode) Text() string { return d.text }

// Len returns the number of nodes in the subtree.
func (d *DOMNode) Len() int {
	n := 1
	for _, c := range d.children {
		n += c.Len()
	}
	return n
}

func (d *DOMNode) matchKey() (Kind, string, intern.Token) { return d.kind, d.key, d.tag }

// clean reports whether n was synchronized into d and has not changed since.
func (d *DOMNode) clean(n *Node) bool {
	return d.src == n && !n.dirty
}
