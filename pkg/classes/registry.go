// Package classes canonicalizes sets of class names into single tokens.
//
// A set is stored sorted by member token with duplicates collapsed, so two
// collections holding the same names in any order and multiplicity share a
// token. Sets of up to four members live in a fixed array; larger sets are
// kept as token slices keyed by their packed byte form. The empty set is
// always token 0. Large-set tokens carry intern.HeapFlag.
package classes

import (
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/vango-dev/vmirror/internal/errors"
	"github.com/vango-dev/vmirror/internal/markup"
	"github.com/vango-dev/vmirror/pkg/intern"
)

// inlineCap is the largest set stored without a heap slice.
const inlineCap = 4

// small holds a sorted set of up to four members, zero padded.
type small [inlineCap]intern.Token

// Registry maps class sets to tokens and back. It is safe for concurrent
// use.
type Registry struct {
	mu      sync.RWMutex
	strings *intern.Interner
	ids     intern.Counter
	small   intern.TokenMap[small]
	large   intern.TokenMap[string]
	members map[intern.Token][]intern.Token
}

// New creates a Registry resolving class names through strs.
func New(strs *intern.Interner) *Registry {
	return &Registry{
		strings: strs,
		small:   intern.NewTokenMap[small](),
		large:   intern.NewTokenMap[string](),
		members: make(map[intern.Token][]intern.Token),
	}
}

// Tokenize returns the canonical token for a collection of class names.
// Order and duplicates are ignored; empty names are skipped.
func (r *Registry) Tokenize(names ...string) intern.Token {
	set := make([]intern.Token, 0, len(names))
	for _, name := range names {
		if t := r.strings.Tokenize(name); t != 0 {
			set = append(set, t)
		}
	}
	return r.TokenizeSet(set)
}

// TokenizeSet returns the canonical token for a collection of interned class
// names. The slice is sorted in place.
func (r *Registry) TokenizeSet(set []intern.Token) intern.Token {
	slices.Sort(set)
	set = slices.Compact(set)
	if len(set) > 0 && set[0] == 0 {
		set = set[1:]
	}
	if len(set) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case len(set) <= inlineCap:
		var v small
		copy(v[:], set)
		if t, ok := r.small.Token(v); ok {
			return t
		}
		t := r.ids.Next(false)
		r.small.Insert(t, v)
		return t
	default:
		k := packKey(set)
		if t, ok := r.large.Token(k); ok {
			return t
		}
		t := r.ids.Next(true)
		r.large.Insert(t, k)
		r.members[t] = slices.Clone(set)
		return t
	}
}

// Members returns the sorted member tokens of set t. It panics with R002 if t
// was never produced by this Registry.
func (r *Registry) Members(t intern.Token) []intern.Token {
	if t == 0 {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t.Heap() {
		m, ok := r.members[t]
		if !ok {
			panic(unregistered(t))
		}
		return slices.Clone(m)
	}
	v, ok := r.small.Value(t)
	if !ok {
		panic(unregistered(t))
	}
	out := make([]intern.Token, 0, inlineCap)
	for _, id := range v {
		if id == 0 {
			break
		}
		out = append(out, id)
	}
	return out
}

// Names returns the class names of set t in canonical order.
func (r *Registry) Names(t intern.Token) []string {
	ids := r.Members(t)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = r.strings.String(id)
	}
	return names
}

// Value returns the space-joined class list of set t.
func (r *Registry) Value(t intern.Token) string {
	return strings.Join(r.Names(t), " ")
}

// Write renders set t as a class="..." attribute.
func (r *Registry) Write(w io.Writer, t intern.Token) error {
	_, err := io.WriteString(w, `class="`+markup.EscapeAttr(r.Value(t))+`"`)
	return err
}

// Contains reports whether set t has the class name.
func (r *Registry) Contains(t intern.Token, name string) bool {
	if name == "" {
		return false
	}
	_, found := slices.BinarySearch(r.Members(t), r.strings.Tokenize(name))
	return found
}

// AddClass returns the token of set t with name added.
func (r *Registry) AddClass(t intern.Token, name string) intern.Token {
	set := r.Members(t)
	return r.TokenizeSet(append(set, r.strings.Tokenize(name)))
}

// RemoveClass returns the token of set t without name.
func (r *Registry) RemoveClass(t intern.Token, name string) intern.Token {
	set := r.Members(t)
	i, found := slices.BinarySearch(set, r.strings.Tokenize(name))
	if !found {
		return t
	}
	return r.TokenizeSet(slices.Delete(set, i, i+1))
}

// Len returns the number of registered non-empty sets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.small.Len() + r.large.Len()
}

func packKey(set []intern.Token) string {
	b := make([]byte, 0, 2*len(set))
	for _, t := range set {
		b = append(b, byte(t>>8), byte(t))
	}
	return string(b)
}

func unregistered(t intern.Token) error {
	return errors.New("R002").WithDetailf("class set token %#04x", uint16(t))
}
