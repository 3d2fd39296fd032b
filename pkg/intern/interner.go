package intern

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/vango-dev/vmirror/internal/errors"
)

// InlineCap is the longest string stored in the inline tier.
const InlineCap = 15

// inline stores a short string without a separate heap allocation.
type inline struct {
	n   uint8
	arr [InlineCap]byte
}

func newInline(s string) inline {
	v := inline{n: uint8(len(s))}
	copy(v.arr[:], s)
	return v
}

func (v inline) String() string {
	return string(v.arr[:v.n])
}

// Interner converts strings to Tokens and back. It is safe for concurrent
// use.
type Interner struct {
	mu    sync.RWMutex
	ids   Counter
	small TokenMap[inline]
	large TokenMap[string]
}

// New creates an empty Interner. Dynamic tokens start after the predefined
// table.
func New() *Interner {
	return &Interner{
		ids:   NewCounter(uint16(len(predefined))),
		small: NewTokenMap[inline](),
		large: NewTokenMap[string](),
	}
}

// Predefined returns the token of a predefined name, if it is one.
func Predefined(s string) (Token, bool) {
	i := sort.SearchStrings(predefined[:], s)
	if i < len(predefined) && predefined[i] == s {
		return Token(i + 1), true
	}
	return 0, false
}

// MustPredefined is like Predefined but panics if s is not in the table.
func MustPredefined(s string) Token {
	t, ok := Predefined(s)
	if !ok {
		panic("intern: " + s + " is not predefined")
	}
	return t
}

// Tokenize returns the token for s, registering it on first sight.
// Equal strings always yield equal tokens.
func (in *Interner) Tokenize(s string) Token {
	if s == "" {
		return 0
	}
	if t, ok := Predefined(s); ok {
		return t
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if len(s) <= InlineCap {
		v := newInline(s)
		if t, ok := in.small.Token(v); ok {
			return t
		}
		t := in.ids.Next(false)
		in.small.Insert(t, v)
		return t
	}
	if t, ok := in.large.Token(s); ok {
		return t
	}
	// Own the bytes so the caller's backing array is not retained.
	v := strings.Clone(s)
	t := in.ids.Next(true)
	in.large.Insert(t, v)
	return t
}

// Lookup returns the string registered for t.
func (in *Interner) Lookup(t Token) (string, bool) {
	switch {
	case t == 0:
		return "", true
	case !t.Heap() && int(t) <= len(predefined):
		return predefined[t-1], true
	}

	in.mu.RLock()
	defer in.mu.RUnlock()
	switch {
	case t.Heap():
		return in.large.Value(t)
	default:
		v, ok := in.small.Value(t)
		return v.String(), ok
	}
}

// String returns the string registered for t. It panics with R001 if t was
// never issued by this Interner.
func (in *Interner) String(t Token) string {
	s, ok := in.Lookup(t)
	if !ok {
		panic(errors.New("R001").WithDetailf("token %#04x", uint16(t)))
	}
	return s
}

// Write writes the string registered for t to w. It panics with R001 if t was
// never issued by this Interner.
func (in *Interner) Write(w io.Writer, t Token) error {
	_, err := io.WriteString(w, in.String(t))
	return err
}

// Len returns the number of dynamically registered strings.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.small.Len() + in.large.Len()
}
