package vdom

import (
	"errors"
	"testing"

	"github.com/vango-dev/vmirror/pkg/attrs"
	"github.com/vango-dev/vmirror/pkg/classes"
	"github.com/vango-dev/vmirror/pkg/intern"
)

func newBuilder() *Builder {
	strs := intern.New()
	return NewBuilder(strs, classes.New(strs))
}

func TestNodesMatch(t *testing.T) {
	b := newBuilder()
	tests := []struct {
		name string
		a, b *Node
		want bool
	}{
		{"span vs div", b.El("span"), b.El("div"), false},
		{"key 5 vs key 6", b.El("li", Key("5")), b.El("li", Key("6")), false},
		{"no keys same tag", b.El("li"), b.El("li"), true},
		{"same key same tag", b.El("li", Key("5")), b.El("li", Key("5")), true},
		{"keyed vs unkeyed", b.El("li", Key("5")), b.El("li"), false},
		{"text vs text", b.Text("a"), b.Text("b"), true},
		{"text vs element", b.Text("a"), b.El("span"), false},
		{"raw vs text", b.Raw("<b>"), b.Text("b"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nodesMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("nodesMatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuilderElement(t *testing.T) {
	b := newBuilder()
	child := b.Text("hi")
	n, err := b.Element(ElementSpec{
		Tag:      "button",
		Key:      "k",
		Classes:  []string{"btn", "primary", "btn"},
		Attrs:    []attrs.KV{{Key: "type", Value: "submit"}},
		Children: []*Node{child, nil},
	})
	if err != nil {
		t.Fatalf("Element() error = %v", err)
	}

	if n.Kind() != KindElement {
		t.Errorf("Kind() = %v, want Element", n.Kind())
	}
	if n.Tag() != intern.MustPredefined("button") {
		t.Errorf("Tag() = %d, want predefined button", n.Tag())
	}
	if got := b.Classes().Value(n.Class()); got != "btn primary" {
		t.Errorf("class = %q, want %q", got, "btn primary")
	}
	if len(n.Children()) != 1 || child.Parent() != n {
		t.Errorf("children = %d, parent linked = %v", len(n.Children()), child.Parent() == n)
	}
	if !n.Dirty() {
		t.Error("new node not dirty")
	}
}

func TestBuilderErrors(t *testing.T) {
	b := newBuilder()

	if _, err := b.Element(ElementSpec{Tag: "div", Attrs: []attrs.KV{{Key: "id", Value: "x"}}}); !errors.Is(err, attrs.ErrReserved) {
		t.Errorf("id attribute error = %v, want ErrReserved", err)
	}
	if _, err := b.Element(ElementSpec{}); err == nil {
		t.Error("empty tag error = nil")
	}

	child := b.Text("x")
	b.El("div", child)
	if _, err := b.Element(ElementSpec{Tag: "p", Children: []*Node{child}}); err == nil {
		t.Error("reattached child error = nil")
	}

	defer func() {
		if recover() == nil {
			t.Error("El() with reserved attribute did not panic")
		}
	}()
	b.El("div", Attr("class", "x"))
}

func TestElArguments(t *testing.T) {
	b := newBuilder()
	n := b.El("ul",
		nil,
		[]Option{Class("a"), Key("k")},
		[]*Node{b.El("li"), b.El("li")},
		"tail",
	)
	if len(n.Children()) != 3 {
		t.Errorf("children = %d, want 3", len(n.Children()))
	}
	if n.Key() != "k" {
		t.Errorf("Key() = %q, want k", n.Key())
	}
	if n.Children()[2].Kind() != KindText || n.Children()[2].Text() != "tail" {
		t.Error("string argument did not become a text child")
	}

	defer func() {
		if recover() == nil {
			t.Error("El() with unsupported argument did not panic")
		}
	}()
	b.El("div", 42)
}

func TestPositionString(t *testing.T) {
	for p := BeforeBegin; p <= AfterEnd; p++ {
		got, ok := ParsePosition(p.String())
		if !ok || got != p {
			t.Errorf("ParsePosition(%q) = %v, %v", p.String(), got, ok)
		}
	}
	if _, ok := ParsePosition("inside"); ok {
		t.Error("ParsePosition(inside) ok = true")
	}
}

func TestManualFrames(t *testing.T) {
	var f ManualFrames
	runs := 0
	f.RequestFrame(func() {
		runs++
		f.RequestFrame(func() { runs++ })
	})
	if f.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", f.Pending())
	}
	if n := f.Run(); n != 1 || runs != 1 {
		t.Errorf("Run() = %d, runs = %d, want 1, 1", n, runs)
	}
	if n := f.Run(); n != 1 || runs != 2 {
		t.Errorf("second Run() = %d, runs = %d, want 1, 2", n, runs)
	}
}
