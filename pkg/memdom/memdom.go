// Package memdom is an in-memory external target backed by
// golang.org/x/net/html. It applies every mutation to a parsed document and
// keeps a log of the calls it received, which makes it suitable for tests
// and for rendering from the command line.
package memdom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/vmirror/pkg/vdom"
)

// Document is a vdom.Target holding a parsed HTML document.
type Document struct {
	doc  *html.Node
	body *html.Node
	log  []string

	// Fault, when set, is consulted before every mutation. A non-nil result
	// fails the call without applying it.
	Fault func(op, target string) error
}

var _ vdom.Target = (*Document)(nil)

// New creates a document with an empty body.
func New() *Document {
	doc, err := html.Parse(strings.NewReader("<!DOCTYPE html><html><head></head><body></body></html>"))
	if err != nil {
		// The input is a constant.
		panic(err)
	}
	return &Document{doc: doc, body: find(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "body"
	})}
}

// Body returns the body element, the usual mount container.
func (d *Document) Body() vdom.Element { return d.body }

// Log returns the calls received since the last Reset, one line each.
func (d *Document) Log() []string {
	return append([]string(nil), d.log...)
}

// Reset clears the call log.
func (d *Document) Reset() { d.log = d.log[:0] }

// GetElementByID returns the element with the given id attribute.
func (d *Document) GetElementByID(id string) (vdom.Element, bool) {
	n := find(d.doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	})
	if n == nil {
		return nil, false
	}
	return n, true
}

// SetAttribute sets an attribute on el.
func (d *Document) SetAttribute(el vdom.Element, name, value string) error {
	n, err := d.begin("set_attribute", el, name+"="+value)
	if err != nil {
		return err
	}
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return nil
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
	return nil
}

// RemoveAttribute removes an attribute from el.
func (d *Document) RemoveAttribute(el vdom.Element, name string) error {
	n, err := d.begin("remove_attribute", el, name)
	if err != nil {
		return err
	}
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			break
		}
	}
	return nil
}

// SetTextContent replaces the children of el with a single text node.
func (d *Document) SetTextContent(el vdom.Element, text string) error {
	n, err := d.begin("set_text_content", el, fmt.Sprintf("%q", text))
	if err != nil {
		return err
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return nil
}

// InsertAdjacentHTML parses markup and inserts it relative to el.
func (d *Document) InsertAdjacentHTML(el vdom.Element, pos vdom.Position, markup string) error {
	n, err := d.begin("insert_adjacent_html", el, pos.String()+" "+markup)
	if err != nil {
		return err
	}
	ctx := n
	if pos == vdom.BeforeBegin || pos == vdom.AfterEnd {
		if n.Parent == nil {
			return fmt.Errorf("memdom: %s of detached element", pos)
		}
		ctx = n.Parent
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return fmt.Errorf("memdom: parse: %w", err)
	}
	place(n, pos, nodes)
	return nil
}

// InsertAdjacentElement moves an existing element relative to el.
func (d *Document) InsertAdjacentElement(el vdom.Element, pos vdom.Position, moved vdom.Element) error {
	m, ok := moved.(*html.Node)
	if !ok || m == nil {
		return fmt.Errorf("memdom: moved element is %T", moved)
	}
	n, err := d.begin("insert_adjacent_element", el, pos.String()+" "+describe(m))
	if err != nil {
		return err
	}
	if (pos == vdom.BeforeBegin || pos == vdom.AfterEnd) && n.Parent == nil {
		return fmt.Errorf("memdom: %s of detached element", pos)
	}
	if m.Parent != nil {
		m.Parent.RemoveChild(m)
	}
	place(n, pos, []*html.Node{m})
	return nil
}

// SetOuterHTML replaces el with parsed markup.
func (d *Document) SetOuterHTML(el vdom.Element, markup string) error {
	n, err := d.begin("set_outer_html", el, markup)
	if err != nil {
		return err
	}
	if n.Parent == nil {
		return fmt.Errorf("memdom: set_outer_html of detached element")
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), n.Parent)
	if err != nil {
		return fmt.Errorf("memdom: parse: %w", err)
	}
	place(n, vdom.BeforeBegin, nodes)
	n.Parent.RemoveChild(n)
	return nil
}

// Remove detaches el from the document.
func (d *Document) Remove(el vdom.Element) error {
	n, err := d.begin("remove", el, "")
	if err != nil {
		return err
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	return nil
}

// OuterHTML renders el including its own tag.
func (d *Document) OuterHTML(el vdom.Element) (string, error) {
	n, ok := el.(*html.Node)
	if !ok || n == nil {
		return "", fmt.Errorf("memdom: element is %T", el)
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// InnerHTML renders the children of el.
func (d *Document) InnerHTML(el vdom.Element) (string, error) {
	n, ok := el.(*html.Node)
	if !ok || n == nil {
		return "", fmt.Errorf("memdom: element is %T", el)
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// begin validates el, consults Fault and records the call.
func (d *Document) begin(op string, el vdom.Element, arg string) (*html.Node, error) {
	n, ok := el.(*html.Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("memdom: %s: element is %T", op, el)
	}
	target := describe(n)
	if d.Fault != nil {
		if err := d.Fault(op, target); err != nil {
			return nil, err
		}
	}
	line := op + " " + target
	if arg != "" {
		line += " " + arg
	}
	d.log = append(d.log, line)
	return n, nil
}

// place inserts nodes relative to n.
func place(n *html.Node, pos vdom.Position, nodes []*html.Node) {
	switch pos {
	case vdom.BeforeBegin:
		for _, c := range nodes {
			n.Parent.InsertBefore(c, n)
		}
	case vdom.AfterBegin:
		first := n.FirstChild
		for _, c := range nodes {
			n.InsertBefore(c, first)
		}
	case vdom.BeforeEnd:
		for _, c := range nodes {
			n.AppendChild(c)
		}
	case vdom.AfterEnd:
		next := n.NextSibling
		for _, c := range nodes {
			n.Parent.InsertBefore(c, next)
		}
	}
}

// describe names an element by id, falling back to its tag.
func describe(n *html.Node) string {
	if id := attr(n, "id"); id != "" {
		return "#" + id
	}
	return n.Data
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := find(c, match); m != nil {
			return m
		}
	}
	return nil
}
