package vdom

import (
	"bytes"
	"io"

	"github.com/vango-dev/vmirror/internal/markup"
	"github.com/vango-dev/vmirror/pkg/intern"
)

// voidTags are elements that cannot have children or a closing tag.
var voidTags = map[intern.Token]bool{
	intern.MustPredefined("area"):    true,
	intern.MustPredefined("base"):    true,
	intern.MustPredefined("br"):      true,
	intern.MustPredefined("col"):     true,
	intern.MustPredefined("command"): true,
	intern.MustPredefined("embed"):   true,
	intern.MustPredefined("hr"):      true,
	intern.MustPredefined("img"):     true,
	intern.MustPredefined("input"):   true,
	intern.MustPredefined("keygen"):  true,
	intern.MustPredefined("link"):    true,
	intern.MustPredefined("meta"):    true,
	intern.MustPredefined("param"):   true,
	intern.MustPredefined("source"):  true,
	intern.MustPredefined("track"):   true,
	intern.MustPredefined("wbr"):     true,
}

// IsVoid reports whether tag is a void element.
func IsVoid(tag intern.Token) bool {
	return voidTags[tag]
}

// WriteHTML writes the markup of the committed subtree d, ids included.
func (r *Reconciler) WriteHTML(w io.Writer, d *DOMNode) error {
	var buf bytes.Buffer
	r.writeNode(&buf, d)
	_, err := w.Write(buf.Bytes())
	return err
}

// Markup returns the markup of the committed subtree d.
func (r *Reconciler) Markup(d *DOMNode) string {
	var buf bytes.Buffer
	r.writeNode(&buf, d)
	return buf.String()
}

func (r *Reconciler) writeNode(w *bytes.Buffer, d *DOMNode) {
	switch d.kind {
	case KindText:
		w.WriteString(`<span id="`)
		w.WriteString(FormatID(r.prefix, d.id))
		w.WriteString(`">`)
		if d.raw {
			w.WriteString(d.text)
		} else {
			w.WriteString(markup.EscapeText(d.text))
		}
		w.WriteString("</span>")

	case KindElement:
		tag := r.strs.String(d.tag)
		w.WriteByte('<')
		w.WriteString(tag)
		w.WriteString(` id="`)
		w.WriteString(FormatID(r.prefix, d.id))
		w.WriteByte('"')
		if d.class != 0 {
			w.WriteString(` class="`)
			w.WriteString(markup.EscapeAttr(r.cls.Value(d.class)))
			w.WriteByte('"')
		}
		// bytes.Buffer writes do not fail.
		_, _ = d.attrs.WriteTo(w)
		w.WriteByte('>')
		if IsVoid(d.tag) {
			return
		}
		for _, c := range d.children {
			r.writeNode(w, c)
		}
		w.WriteString("</")
		w.WriteString(tag)
		w.WriteByte('>')
	}
}
