// Package vdom implements the tree model and the reconciliation algorithm.
//
// Two trees are maintained. The pending tree is built by application code
// out of Node values and describes the desired state. The committed tree is
// made of DOMNode values and mirrors what the external target currently
// shows. Every committed node carries a numeric id that is rendered into
// markup as id="<prefix>-<n>", which is how the committed tree finds its
// live elements again.
//
// # Building
//
// Nodes are created through a Builder, which tokenizes tag names, class
// lists and attribute keys up front:
//
//	b := vdom.NewBuilder(strs, cls)
//	list := b.El("ul", vdom.Class("todo"),
//	    b.El("li", vdom.Key("1"), "Buy milk"),
//	    b.El("li", vdom.Key("2"), "Walk dog"),
//	)
//
// # Reconciling
//
// Reconciler.Mount materializes a pending tree into the target with a single
// markup insertion. Reconciler.Patch compares a pending tree against the
// committed tree and issues the minimal set of target calls: attribute and
// class updates in place, text updates through SetTextContent, keyed
// relocation through InsertAdjacentElement, and batched insertion of fresh
// siblings through one InsertAdjacentHTML call.
//
// # Handles
//
// Pending.Bind returns a Ref to a node of the pending tree. A Ref resolves
// through a generation-checked arena, so it stops resolving as soon as its
// node is discarded by a destructive merge.
package vdom
