// Package markup holds the HTML escaping rules shared by the serializers.
package markup

import "strings"

// EscapeText escapes text for safe inclusion in HTML content, replacing
// & ' < > " with entity references. Other bytes, including invalid UTF-8,
// are copied unchanged.
func EscapeText(s string) string {
	return escape(s, `&'<>"`)
}

// EscapeAttr escapes text for inclusion in a double-quoted attribute value.
// In addition to the text entities it escapes whitespace that could break
// attribute parsing.
func EscapeAttr(s string) string {
	return escape(s, "&'<>\"\n\r\t")
}

func escape(s, special string) string {
	i := strings.IndexAny(s, special)
	if i < 0 {
		return s
	}
	var buf strings.Builder
	buf.Grow(len(s) + 8)
	buf.WriteString(s[:i])

	for ; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(special, c) < 0 {
			buf.WriteByte(c)
			continue
		}
		buf.WriteString(entity(c))
	}

	return buf.String()
}

func entity(c byte) string {
	switch c {
	case '&':
		return "&amp;"
	case '<':
		return "&lt;"
	case '>':
		return "&gt;"
	case '"':
		return "&#34;"
	case '\'':
		return "&#39;"
	case '\n':
		return "&#10;"
	case '\r':
		return "&#13;"
	case '\t':
		return "&#9;"
	}
	return string(c)
}
