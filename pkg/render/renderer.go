package render

import (
	"bufio"
	"bytes"
	"io"

	"github.com/vango-dev/vmirror/internal/markup"
	"github.com/vango-dev/vmirror/pkg/classes"
	"github.com/vango-dev/vmirror/pkg/intern"
	"github.com/vango-dev/vmirror/pkg/vdom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty enables indented output.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string
}

// Renderer writes pending trees built with one interner and class registry.
type Renderer struct {
	config RendererConfig
	strs   *intern.Interner
	cls    *classes.Registry
}

// NewRenderer creates a Renderer for trees built with strs and cls.
func NewRenderer(strs *intern.Interner, cls *classes.Registry, config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config, strs: strs, cls: cls}
}

// RenderToString renders n to a string.
func (r *Renderer) RenderToString(n *vdom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams n to w.
func (r *Renderer) RenderToWriter(w io.Writer, n *vdom.Node) error {
	bw := bufio.NewWriter(w)
	r.renderNode(bw, n, 0, r.config.Pretty)
	return bw.Flush()
}

// renderNode writes n, laid out on its own lines when pretty is set.
// Write errors surface on Flush.
func (r *Renderer) renderNode(w *bufio.Writer, n *vdom.Node, depth int, pretty bool) {
	if n == nil {
		return
	}
	if n.Kind() == vdom.KindText {
		if n.Raw() {
			w.WriteString(n.Text())
		} else {
			w.WriteString(markup.EscapeText(n.Text()))
		}
		return
	}
	r.renderElement(w, n, depth, pretty)
}

func (r *Renderer) renderElement(w *bufio.Writer, n *vdom.Node, depth int, pretty bool) {
	tag := r.strs.String(n.Tag())
	pretty = pretty && !isInlineElement(tag)

	if pretty && depth > 0 {
		r.writeIndent(w, depth)
	}
	w.WriteByte('<')
	w.WriteString(tag)
	if n.Class() != 0 {
		w.WriteByte(' ')
		r.cls.Write(w, n.Class())
	}
	n.Attrs().WriteTo(w)
	w.WriteByte('>')

	if vdom.IsVoid(n.Tag()) {
		if pretty {
			w.WriteByte('\n')
		}
		return
	}

	block := pretty && r.blockChildren(n)
	if block {
		w.WriteByte('\n')
	}
	for _, c := range n.Children() {
		r.renderNode(w, c, depth+1, block)
	}
	if block {
		r.writeIndent(w, depth)
	}
	w.WriteString("</")
	w.WriteString(tag)
	w.WriteByte('>')
	if pretty {
		w.WriteByte('\n')
	}
}

// blockChildren reports whether n has children and all of them are
// elements that go on their own line.
func (r *Renderer) blockChildren(n *vdom.Node) bool {
	for _, c := range n.Children() {
		if c.Kind() != vdom.KindElement || isInlineElement(r.strs.String(c.Tag())) {
			return false
		}
	}
	return len(n.Children()) > 0
}

func (r *Renderer) writeIndent(w *bufio.Writer, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteString(r.config.Indent)
	}
}
