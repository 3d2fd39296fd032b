package markup

import "testing"

func TestEscapeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"a & b", "a &amp; b"},
		{"<script>", "&lt;script&gt;"},
		{`say "hi"`, "say &#34;hi&#34;"},
		{"it's", "it&#39;s"},
		{"tab\there", "tab\there"},
		{"日本 <b>", "日本 &lt;b&gt;"},
	}
	for _, tt := range tests {
		if got := EscapeText(tt.in); got != tt.want {
			t.Errorf("EscapeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeAttr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"64", "64"},
		{`x" onload="y`, "x&#34; onload=&#34;y"},
		{"a\nb", "a&#10;b"},
		{"a\r\tb", "a&#13;&#9;b"},
	}
	for _, tt := range tests {
		if got := EscapeAttr(tt.in); got != tt.want {
			t.Errorf("EscapeAttr(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeKeepsInvalidUTF8(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a\xffb", "a\xffb"},
		{"a\xff<b", "a\xff&lt;b"},
		{"\xc3<", "\xc3&lt;"},
	}
	for _, tt := range tests {
		if got := EscapeText(tt.in); got != tt.want {
			t.Errorf("EscapeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got := EscapeAttr(tt.in); got != tt.want {
			t.Errorf("EscapeAttr(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
