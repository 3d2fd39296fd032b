package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/vango-dev/vmirror/internal/markup"
	"github.com/vango-dev/vmirror/pkg/vdom"
)

// PageData describes a complete HTML document around a rendered body.
type PageData struct {
	// Body is the tree rendered inside <body>.
	Body *vdom.Node

	// Title is the document title.
	Title string

	// Lang is the html lang attribute. Defaults to "en".
	Lang string

	// StyleSheets are stylesheet URLs linked from the head.
	StyleSheets []string

	// Meta are additional meta tags.
	Meta []MetaTag
}

// MetaTag represents a <meta> element.
type MetaTag struct {
	Name     string
	Property string
	Content  string
}

// RenderPage writes a full HTML document for page.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("<!DOCTYPE html>\n")
	bw.WriteString(`<html lang="` + markup.EscapeAttr(lang) + `">` + "\n")

	bw.WriteString("<head>\n")
	bw.WriteString(`  <meta charset="utf-8">` + "\n")
	bw.WriteString(`  <meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
	if page.Title != "" {
		bw.WriteString("  <title>" + markup.EscapeText(page.Title) + "</title>\n")
	}
	for _, m := range page.Meta {
		writeMeta(bw, m)
	}
	for _, href := range page.StyleSheets {
		bw.WriteString(`  <link rel="stylesheet" href="` + markup.EscapeAttr(href) + `">` + "\n")
	}
	bw.WriteString("</head>\n")

	bw.WriteString("<body>\n")
	if page.Body != nil {
		body, err := r.RenderToString(page.Body)
		if err != nil {
			return err
		}
		bw.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			bw.WriteByte('\n')
		}
	}
	bw.WriteString("</body>\n</html>\n")
	return bw.Flush()
}

func writeMeta(w *bufio.Writer, m MetaTag) {
	w.WriteString("  <meta")
	if m.Name != "" {
		w.WriteString(` name="` + markup.EscapeAttr(m.Name) + `"`)
	}
	if m.Property != "" {
		w.WriteString(` property="` + markup.EscapeAttr(m.Property) + `"`)
	}
	w.WriteString(` content="` + markup.EscapeAttr(m.Content) + `">` + "\n")
}
