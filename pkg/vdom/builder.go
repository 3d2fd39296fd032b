package vdom

import (
	"fmt"

	"github.com/vango-dev/vmirror/internal/errors"
	"github.com/vango-dev/vmirror/pkg/attrs"
	"github.com/vango-dev/vmirror/pkg/classes"
	"github.com/vango-dev/vmirror/pkg/intern"
)

// ElementSpec describes an element node.
type ElementSpec struct {
	Tag       string
	Key       string
	Immutable bool
	Classes   []string
	Attrs     []attrs.KV
	Children  []*Node
}

// TextSpec describes a text node. Raw text is written to markup as is;
// other text is escaped.
type TextSpec struct {
	Text string
	Raw  bool
	Key  string
}

// Builder creates pending nodes, tokenizing names with its interner and
// class registry.
type Builder struct {
	strs *intern.Interner
	cls  *classes.Registry
}

// NewBuilder creates a Builder.
func NewBuilder(strs *intern.Interner, cls *classes.Registry) *Builder {
	return &Builder{strs: strs, cls: cls}
}

// Strings returns the interner used by the builder.
func (b *Builder) Strings() *intern.Interner { return b.strs }

// Classes returns the class registry used by the builder.
func (b *Builder) Classes() *classes.Registry { return b.cls }

// Element creates an element node. It fails with R005 when the attribute
// list contains "id" or "class" and with R008 when the tag is empty or a
// child already has a parent.
func (b *Builder) Element(spec ElementSpec) (*Node, error) {
	if spec.Tag == "" {
		return nil, errors.New("R008").WithDetail("empty tag")
	}
	m, err := attrs.New(b.strs, spec.Attrs...)
	if err != nil {
		return nil, err
	}
	n := &Node{
		kind:      KindElement,
		key:       spec.Key,
		immutable: spec.Immutable,
		dirty:     true,
		tag:       b.strs.Tokenize(spec.Tag),
		class:     b.cls.Tokenize(spec.Classes...),
		attrs:     m,
	}
	for _, c := range spec.Children {
		if c != nil && c.parent != nil {
			return nil, errors.New("R008").WithDetailf("<%s> child is already attached", spec.Tag)
		}
	}
	if len(spec.Children) > 0 {
		n.children = make([]*Node, 0, len(spec.Children))
	}
	for _, c := range spec.Children {
		if c == nil {
			continue
		}
		c.parent = n
		n.children = append(n.children, c)
	}
	return n, nil
}

// TextNode creates a text node.
func (b *Builder) TextNode(spec TextSpec) *Node {
	return &Node{
		kind:  KindText,
		key:   spec.Key,
		dirty: true,
		text:  spec.Text,
		raw:   spec.Raw,
	}
}

// Text creates an escaped text node.
func (b *Builder) Text(s string) *Node {
	return b.TextNode(TextSpec{Text: s})
}

// Raw creates a text node whose content is written as markup.
func (b *Builder) Raw(html string) *Node {
	return b.TextNode(TextSpec{Text: html, Raw: true})
}

// Option configures an element created with El.
type Option func(*ElementSpec)

// Key sets the reconciliation key.
func Key(k string) Option {
	return func(s *ElementSpec) { s.Key = k }
}

// Immutable excludes the element and its subtree from diffing once
// committed.
func Immutable() Option {
	return func(s *ElementSpec) { s.Immutable = true }
}

// Class adds class names.
func Class(names ...string) Option {
	return func(s *ElementSpec) { s.Classes = append(s.Classes, names...) }
}

// Attr sets an attribute. An empty value makes a boolean attribute.
func Attr(key, value string) Option {
	return func(s *ElementSpec) { s.Attrs = append(s.Attrs, attrs.KV{Key: key, Value: value}) }
}

// El creates an element from variadic arguments and panics on invalid
// input. Arguments can be: nil, Option, []Option, *Node, []*Node, or string
// (shorthand for an escaped text child).
func (b *Builder) El(tag string, args ...any) *Node {
	spec := ElementSpec{Tag: tag}
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional arguments)
		case Option:
			v(&spec)
		case []Option:
			for _, o := range v {
				o(&spec)
			}
		case *Node:
			spec.Children = append(spec.Children, v)
		case []*Node:
			spec.Children = append(spec.Children, v...)
		case string:
			spec.Children = append(spec.Children, b.Text(v))
		default:
			panic(fmt.Sprintf("vdom: unsupported argument %T for <%s>", arg, tag))
		}
	}
	n, err := b.Element(spec)
	if err != nil {
		panic(err)
	}
	return n
}
