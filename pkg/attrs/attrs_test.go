package attrs

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/vmirror/pkg/intern"
)

type recorder struct {
	ops  []string
	fail string
}

func (r *recorder) SetAttribute(name, value string) error {
	if name == r.fail {
		return errors.New("boom")
	}
	r.ops = append(r.ops, "set "+name+"="+value)
	return nil
}

func (r *recorder) RemoveAttribute(name string) error {
	if name == r.fail {
		return errors.New("boom")
	}
	r.ops = append(r.ops, "remove "+name)
	return nil
}

func mustNew(t *testing.T, strs *intern.Interner, kvs ...KV) *Map {
	t.Helper()
	m, err := New(strs, kvs...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

func TestPatchMinimal(t *testing.T) {
	strs := intern.New()
	old := mustNew(t, strs, KV{"w", "64"}, KV{"disabled", ""})
	next := mustNew(t, strs, KV{"w", "64"}, KV{"title", "x"})

	var r recorder
	if err := old.Patch(next, &r); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}

	want := []string{"remove disabled", "set title=x"}
	if diff := cmp.Diff(want, r.ops); diff != "" {
		t.Errorf("Patch() ops mismatch (-want +got):\n%s", diff)
	}
	if !old.Equal(next) {
		t.Error("map not equal to next after Patch")
	}
}

func TestPatchChangedValue(t *testing.T) {
	strs := intern.New()
	old := mustNew(t, strs, KV{"type", "text"}, KV{"href", "/a"})
	next := mustNew(t, strs, KV{"type", "password"}, KV{"href", "/a"})

	var r recorder
	if err := old.Patch(next, &r); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	want := []string{"set type=password"}
	if diff := cmp.Diff(want, r.ops); diff != "" {
		t.Errorf("Patch() ops mismatch (-want +got):\n%s", diff)
	}

	r.ops = nil
	if err := old.Patch(next, &r); err != nil {
		t.Fatalf("second Patch() error = %v", err)
	}
	if len(r.ops) != 0 {
		t.Errorf("second Patch() ops = %v, want none", r.ops)
	}
}

func TestPatchNil(t *testing.T) {
	strs := intern.New()
	old := mustNew(t, strs, KV{"href", "/a"}, KV{"hidden", ""})

	var r recorder
	if err := old.Patch(nil, &r); err != nil {
		t.Fatalf("Patch(nil) error = %v", err)
	}
	if old.Len() != 0 {
		t.Errorf("Len() = %d, want 0", old.Len())
	}
	if len(r.ops) != 2 {
		t.Errorf("ops = %v, want two removals", r.ops)
	}
}

func TestPatchErrorKeepsApplied(t *testing.T) {
	strs := intern.New()
	old := mustNew(t, strs)
	next := mustNew(t, strs, KV{"href", "/a"}, KV{"title", "x"})

	r := recorder{fail: "title"}
	if err := old.Patch(next, &r); err == nil {
		t.Fatal("Patch() error = nil, want failure")
	}
	if v, ok := old.Get("href"); !ok || v != "/a" {
		t.Errorf("Get(href) = %q, %v, want /a, true", v, ok)
	}
	if _, ok := old.Get("title"); ok {
		t.Error("title stored despite failed apply")
	}
}

func TestReserved(t *testing.T) {
	strs := intern.New()
	for _, key := range []string{"id", "class", ""} {
		_, err := New(strs, KV{key, "x"})
		if !errors.Is(err, ErrReserved) {
			t.Errorf("New(%q) error = %v, want ErrReserved", key, err)
		}
	}

	m := mustNew(t, strs)
	if err := m.Set("id", "a"); !errors.Is(err, ErrReserved) {
		t.Errorf("Set(id) error = %v, want ErrReserved", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after rejected Set, want 0", m.Len())
	}
}

func TestRepresentation(t *testing.T) {
	strs := intern.New()
	m := mustNew(t, strs,
		KV{"disabled", ""},
		KV{"type", "checkbox"},
		KV{"width", "64"},
	)

	tests := []struct {
		key       string
		tokenized bool
		boolean   bool
	}{
		{"disabled", true, true},
		{"type", true, false},
		{"width", false, false},
	}
	for _, tt := range tests {
		v, ok := m.Value(tt.key)
		if !ok {
			t.Fatalf("Value(%q) missing", tt.key)
		}
		if _, tok := v.Token(); tok != tt.tokenized {
			t.Errorf("Value(%q) tokenized = %v, want %v", tt.key, tok, tt.tokenized)
		}
		if v.Bool() != tt.boolean {
			t.Errorf("Value(%q).Bool() = %v, want %v", tt.key, v.Bool(), tt.boolean)
		}
	}
}

func TestTokenizable(t *testing.T) {
	for i := 1; i < len(tokenizable); i++ {
		if tokenizable[i-1] >= tokenizable[i] {
			t.Fatalf("tokenizable not sorted at %q", tokenizable[i])
		}
	}
	if Tokenizable("class") {
		t.Error("class should be handled by the class registry")
	}
	if !Tokenizable("checked") || Tokenizable("href") {
		t.Error("Tokenizable classification wrong")
	}
}

func TestSetOverrideAndRemove(t *testing.T) {
	strs := intern.New()
	m := mustNew(t, strs, KV{"href", "/a"}, KV{"href", "/b"})
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	if v, _ := m.Get("href"); v != "/b" {
		t.Errorf("Get(href) = %q, want /b", v)
	}
	if !m.Remove("href") {
		t.Error("Remove(href) = false, want true")
	}
	if m.Remove("href") {
		t.Error("second Remove(href) = true, want false")
	}
	if m.Remove("data-unknown") {
		t.Error("Remove of never-set key = true")
	}
}

func TestWriteTo(t *testing.T) {
	strs := intern.New()
	m := mustNew(t, strs,
		KV{"hidden", ""},
		KV{"title", `a "quoted" <b>`},
	)

	var sb strings.Builder
	n, err := m.WriteTo(&sb)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	got := sb.String()
	if int(n) != len(got) {
		t.Errorf("WriteTo() n = %d, want %d", n, len(got))
	}
	if !strings.Contains(got, " hidden") || strings.Contains(got, "hidden=") {
		t.Errorf("boolean attribute rendered wrong: %q", got)
	}
	if !strings.Contains(got, ` title="a &#34;quoted&#34; &lt;b&gt;"`) {
		t.Errorf("title not escaped: %q", got)
	}
}

func TestExportJSON(t *testing.T) {
	strs := intern.New()
	m := mustNew(t, strs, KV{"href", "/a"}, KV{"checked", ""})

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := map[string]string{"href": "/a", "checked": ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("exported attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneIndependent(t *testing.T) {
	strs := intern.New()
	m := mustNew(t, strs, KV{"href", "/a"})
	c := m.Clone()
	if err := c.Set("title", "x"); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 || c.Len() != 2 {
		t.Errorf("Len() = %d/%d, want 1/2", m.Len(), c.Len())
	}
}
