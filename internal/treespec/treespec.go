// Package treespec reads tree description files and turns them into
// pending node trees.
//
// A description is YAML (and therefore also JSON). Each document holds
// one tree:
//
//	tag: ul
//	class: list compact
//	attrs:
//	  role: list
//	children:
//	  - tag: li
//	    key: "1"
//	    children: [one]
//	  - tag: li
//	    key: "2"
//	    children:
//	      - raw: <b>two</b>
//
// A bare string child is an escaped text node. An attribute value of true
// makes a boolean attribute and false omits it. Files may hold several
// documents separated by "---"; the CLI diff command treats them as
// successive states of one tree.
package treespec

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vmirror/internal/errors"
	"github.com/vango-dev/vmirror/pkg/attrs"
	"github.com/vango-dev/vmirror/pkg/vdom"
)

// Spec describes one node.
type Spec struct {
	Tag       string
	Key       string
	Immutable bool
	Class     []string
	Attrs     []attrs.KV
	Text      *string
	Raw       *string
	Children  []*Spec

	line, column int
}

type specFields struct {
	Tag       string    `yaml:"tag"`
	Key       string    `yaml:"key"`
	Immutable bool      `yaml:"immutable"`
	Class     classList `yaml:"class"`
	Attrs     attrList  `yaml:"attrs"`
	Text      *string   `yaml:"text"`
	Raw       *string   `yaml:"raw"`
	Children  []*Spec   `yaml:"children"`
}

// UnmarshalYAML decodes a node description. A scalar is shorthand for a
// text node.
func (s *Spec) UnmarshalYAML(value *yaml.Node) error {
	s.line, s.column = value.Line, value.Column
	if value.Kind == yaml.ScalarNode {
		text := value.Value
		s.Text = &text
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return invalid(value, "node must be a mapping or a string")
	}
	var f specFields
	if err := value.Decode(&f); err != nil {
		return err
	}
	s.Tag, s.Key, s.Immutable = f.Tag, f.Key, f.Immutable
	s.Class, s.Attrs = f.Class, f.Attrs
	s.Text, s.Raw, s.Children = f.Text, f.Raw, f.Children
	return nil
}

// classList accepts either a space separated string or a sequence.
type classList []string

func (c *classList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*c = strings.Fields(value.Value)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		*c = names
		return nil
	}
	return invalid(value, "class must be a string or a list of strings")
}

// attrList keeps attributes in file order.
type attrList []attrs.KV

func (a *attrList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return invalid(value, "attrs must be a mapping")
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return invalid(v, "attribute "+k.Value+" must be a scalar")
		}
		if v.ShortTag() == "!!bool" {
			var on bool
			if err := v.Decode(&on); err != nil {
				return err
			}
			if on {
				*a = append(*a, attrs.KV{Key: k.Value})
			}
			continue
		}
		*a = append(*a, attrs.KV{Key: k.Value, Value: v.Value})
	}
	return nil
}

type specError struct {
	line, column int
	msg          string
}

func (e *specError) Error() string { return e.msg }

func invalid(n *yaml.Node, msg string) error {
	return &specError{line: n.Line, column: n.Column, msg: msg}
}

// Decode reads every document in r. name is used in error locations.
func Decode(r io.Reader, name string) ([]*Spec, error) {
	dec := yaml.NewDecoder(r)
	var specs []*Spec
	for {
		var s Spec
		err := dec.Decode(&s)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrap(name, err)
		}
		specs = append(specs, &s)
	}
	if len(specs) == 0 {
		return nil, errors.New("R010").WithDetailf("%s contains no tree", name)
	}
	return specs, nil
}

// Parse decodes the documents in data.
func Parse(data []byte, name string) ([]*Spec, error) {
	return Decode(bytes.NewReader(data), name)
}

// LoadFile reads the documents of the file at path. "-" reads stdin.
func LoadFile(path string) ([]*Spec, error) {
	if path == "-" {
		return Decode(os.Stdin, "<stdin>")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("R010").WithDetail("cannot open " + path).Wrap(err)
	}
	defer f.Close()
	return Decode(f, path)
}

func wrap(name string, err error) error {
	var se *specError
	if stderrors.As(err, &se) {
		return errors.New("R010").WithDetail(se.msg).WithLocation(name, se.line, se.column)
	}
	return errors.New("R010").WithDetail(name + ": " + err.Error()).Wrap(err)
}

// Build converts the description into a pending tree using b.
func (s *Spec) Build(b *vdom.Builder) (*vdom.Node, error) {
	return s.build(b, "")
}

// BuildFile is Build with file locations in errors.
func (s *Spec) BuildFile(b *vdom.Builder, name string) (*vdom.Node, error) {
	return s.build(b, name)
}

func (s *Spec) build(b *vdom.Builder, name string) (*vdom.Node, error) {
	fail := func(format string, args ...any) *errors.VmError {
		err := errors.New("R010").WithDetailf(format, args...)
		if name != "" && s.line > 0 {
			err = err.WithLocation(name, s.line, s.column)
		}
		return err
	}

	kinds := 0
	if s.Tag != "" {
		kinds++
	}
	if s.Text != nil {
		kinds++
	}
	if s.Raw != nil {
		kinds++
	}
	if kinds != 1 {
		return nil, fail("node needs exactly one of tag, text or raw")
	}

	if s.Tag == "" {
		if len(s.Children) > 0 || len(s.Attrs) > 0 || len(s.Class) > 0 {
			return nil, fail("text nodes cannot have children, attrs or class")
		}
		if s.Raw != nil {
			return b.TextNode(vdom.TextSpec{Text: *s.Raw, Raw: true, Key: s.Key}), nil
		}
		return b.TextNode(vdom.TextSpec{Text: *s.Text, Key: s.Key}), nil
	}

	if len(s.Children) > 0 && vdom.IsVoid(b.Strings().Tokenize(s.Tag)) {
		return nil, fail("<%s> is a void element and cannot have children", s.Tag)
	}

	children := make([]*vdom.Node, 0, len(s.Children))
	for _, c := range s.Children {
		if c == nil {
			continue
		}
		n, err := c.build(b, name)
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}

	n, err := b.Element(vdom.ElementSpec{
		Tag:       s.Tag,
		Key:       s.Key,
		Immutable: s.Immutable,
		Classes:   s.Class,
		Attrs:     s.Attrs,
		Children:  children,
	})
	if err != nil {
		return nil, fail("<%s>: %v", s.Tag, err).Wrap(err)
	}
	return n, nil
}
