// Package attrs implements the per-node attribute map.
//
// Keys are interned tokens. Values are stored either as a token, for
// attributes whose values come from a small enumerable set, or as the raw
// string for free-form values such as URLs and sizes. The representation of
// a key is fixed by a static list when the value is stored, so a given
// attribute name is always compared the same way.
package attrs

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/vango-dev/vmirror/internal/errors"
	"github.com/vango-dev/vmirror/internal/markup"
	"github.com/vango-dev/vmirror/pkg/intern"
)

// ErrReserved is matched by errors returned when "id" or "class" is set
// through the attribute API.
var ErrReserved = errors.New("R005")

// tokenizable lists attribute keys with a limited set of values. Sorted.
var tokenizable = [...]string{
	"async",
	"autocapitalize",
	"autocomplete",
	"autofocus",
	"autoplay",
	"checked",
	"contenteditable",
	"controls",
	"crossorigin",
	"decoding",
	"defer",
	"dir",
	"disabled",
	"draggable",
	"dropzone",
	"hidden",
	"language",
	"loop",
	"method",
	"multiple",
	"muted",
	"novalidate",
	"open",
	"preload",
	"readonly",
	"referrerpolicy",
	"required",
	"reversed",
	"sandbox",
	"selected",
	"spellcheck",
	"translate",
	"type",
	"wrap",
}

// Tokenizable reports whether values of key are stored as tokens.
func Tokenizable(key string) bool {
	i := sort.SearchStrings(tokenizable[:], key)
	return i < len(tokenizable) && tokenizable[i] == key
}

// Value is an attribute value.
type Value struct {
	tok   intern.Token
	str   string
	plain bool
}

// StringToken returns a tokenized value. StringToken(0) is a boolean
// attribute with no value.
func StringToken(t intern.Token) Value {
	return Value{tok: t}
}

// Untokenized returns a free-form value.
func Untokenized(s string) Value {
	return Value{str: s, plain: true}
}

// Token returns the value's token and whether the value is tokenized.
func (v Value) Token() (intern.Token, bool) {
	return v.tok, !v.plain
}

// Bool reports whether v is a valueless boolean attribute.
func (v Value) Bool() bool {
	return !v.plain && v.tok == 0
}

// KV is a key/value pair used to construct a Map.
type KV struct {
	Key   string
	Value string
}

// Applier receives the attribute changes computed by Map.Patch.
type Applier interface {
	SetAttribute(name, value string) error
	RemoveAttribute(name string) error
}

type entry struct {
	key intern.Token
	val Value
}

// Map is an attribute map ordered by key token.
type Map struct {
	strs    *intern.Interner
	entries []entry
}

// New builds a Map from kvs. Later pairs override earlier pairs with the same
// key. It returns an ErrReserved error if "id" or "class" appears.
func New(strs *intern.Interner, kvs ...KV) (*Map, error) {
	m := &Map{strs: strs}
	if len(kvs) > 0 {
		m.entries = make([]entry, 0, len(kvs))
	}
	for _, kv := range kvs {
		if err := m.Set(kv.Key, kv.Value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Set stores value under key.
func (m *Map) Set(key, value string) error {
	switch key {
	case "id", "class":
		return errors.New("R005").WithDetailf("attribute %q", key)
	case "":
		return errors.New("R005").WithDetail("empty attribute name")
	}
	m.put(m.strs.Tokenize(key), m.classify(key, value))
	return nil
}

func (m *Map) classify(key, value string) Value {
	switch {
	case value == "":
		return StringToken(0)
	case Tokenizable(key):
		return StringToken(m.strs.Tokenize(value))
	default:
		return Untokenized(value)
	}
}

func (m *Map) search(key intern.Token) (int, bool) {
	if m == nil {
		return 0, false
	}
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].key >= key
	})
	return i, i < len(m.entries) && m.entries[i].key == key
}

func (m *Map) put(key intern.Token, v Value) {
	i, ok := m.search(key)
	if ok {
		m.entries[i].val = v
		return
	}
	m.entries = append(m.entries, entry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = entry{key: key, val: v}
}

// Remove deletes key and reports whether it was present.
func (m *Map) Remove(key string) bool {
	t, ok := m.lookupKey(key)
	if !ok {
		return false
	}
	i, ok := m.search(t)
	if !ok {
		return false
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	return true
}

// lookupKey resolves key without registering it.
func (m *Map) lookupKey(key string) (intern.Token, bool) {
	if t, ok := intern.Predefined(key); ok {
		return t, true
	}
	for _, e := range m.entries {
		if m.strs.String(e.key) == key {
			return e.key, true
		}
	}
	return 0, false
}

// Get returns the rendered value of key.
func (m *Map) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	t, ok := m.lookupKey(key)
	if !ok {
		return "", false
	}
	i, ok := m.search(t)
	if !ok {
		return "", false
	}
	return m.render(m.entries[i].val), true
}

// Value returns the stored representation of key.
func (m *Map) Value(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	t, ok := m.lookupKey(key)
	if !ok {
		return Value{}, false
	}
	i, ok := m.search(t)
	if !ok {
		return Value{}, false
	}
	return m.entries[i].val, true
}

func (m *Map) render(v Value) string {
	if v.plain {
		return v.str
	}
	return m.strs.String(v.tok)
}

// Len returns the number of attributes.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Range calls fn for each attribute in key-token order until fn returns
// false.
func (m *Map) Range(fn func(key, value string) bool) {
	if m == nil {
		return
	}
	for _, e := range m.entries {
		if !fn(m.strs.String(e.key), m.render(e.val)) {
			return
		}
	}
}

// Equal reports whether m and o hold the same attributes. Both maps must
// share an interner.
func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	for i := 0; i < m.Len(); i++ {
		if m.entries[i] != o.entries[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of m that shares its interner.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	c := &Map{strs: m.strs}
	if len(m.entries) > 0 {
		c.entries = append([]entry(nil), m.entries...)
	}
	return c
}

// Patch brings m in line with next, reporting each change to apply.
// Removed keys are reported first, then added and changed keys, each in key
// token order. Unchanged keys are not reported. A nil next is an empty map.
//
// On error m holds every change reported before the failing one.
func (m *Map) Patch(next *Map, apply Applier) error {
	for i := 0; i < len(m.entries); {
		e := m.entries[i]
		if _, ok := next.search(e.key); ok {
			i++
			continue
		}
		if err := apply.RemoveAttribute(m.strs.String(e.key)); err != nil {
			return err
		}
		m.entries = append(m.entries[:i], m.entries[i+1:]...)
	}

	if next == nil {
		return nil
	}
	for _, ne := range next.entries {
		if i, ok := m.search(ne.key); ok && m.entries[i].val == ne.val {
			continue
		}
		if err := apply.SetAttribute(m.strs.String(ne.key), next.render(ne.val)); err != nil {
			return err
		}
		m.put(ne.key, ne.val)
	}
	return nil
}

// WriteTo writes the attributes as markup, each preceded by a space.
// Boolean attributes are written without a value.
func (m *Map) WriteTo(w io.Writer) (int64, error) {
	if m == nil {
		return 0, nil
	}
	var total int64
	write := func(s string) error {
		n, err := io.WriteString(w, s)
		total += int64(n)
		return err
	}
	for _, e := range m.entries {
		if err := write(" " + m.strs.String(e.key)); err != nil {
			return total, err
		}
		if e.val.Bool() {
			continue
		}
		if err := write(`="` + markup.EscapeAttr(m.render(e.val)) + `"`); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Export returns the attributes as a plain map, the form forwarded with
// delegated events.
func (m *Map) Export() map[string]string {
	out := make(map[string]string, m.Len())
	m.Range(func(k, v string) bool {
		out[k] = v
		return true
	})
	return out
}

// MarshalJSON encodes the map as a JSON object.
func (m *Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Export())
}
