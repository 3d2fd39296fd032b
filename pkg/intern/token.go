package intern

import (
	"github.com/vango-dev/vmirror/internal/errors"
)

// Token identifies an interned value. The zero Token means "absent".
type Token uint16

// HeapFlag marks tokens whose value lives in a heap-allocated tier.
const HeapFlag Token = 1 << 15

// MaxCounter is the largest counter value before the flag bit.
const MaxCounter = uint16(HeapFlag - 1)

// Heap reports whether t was issued for the heap tier.
func (t Token) Heap() bool {
	return t&HeapFlag != 0
}

// Counter issues monotonically increasing tokens, optionally flagging them
// with HeapFlag. The counter is shared by both tiers so a flagged and an
// unflagged token never collide after masking.
type Counter struct {
	n uint16
}

// NewCounter creates a counter whose first issued token is start+1.
func NewCounter(start uint16) Counter {
	return Counter{n: start}
}

// Next returns a fresh token. It panics with R006 when the 15-bit space is
// exhausted.
func (c *Counter) Next(heap bool) Token {
	if c.n >= MaxCounter {
		panic(errors.New("R006").WithDetailf("counter reached %d", c.n))
	}
	c.n++
	t := Token(c.n)
	if heap {
		t |= HeapFlag
	}
	return t
}

// TokenMap is a bidirectional map between tokens and comparable values with
// no removal.
type TokenMap[T comparable] struct {
	forward  map[Token]T
	inverted map[T]Token
}

// NewTokenMap creates an empty TokenMap.
func NewTokenMap[T comparable]() TokenMap[T] {
	return TokenMap[T]{
		forward:  make(map[Token]T),
		inverted: make(map[T]Token),
	}
}

// Token returns the token registered for v.
func (m *TokenMap[T]) Token(v T) (Token, bool) {
	t, ok := m.inverted[v]
	return t, ok
}

// Value returns the value registered for t.
func (m *TokenMap[T]) Value(t Token) (T, bool) {
	v, ok := m.forward[t]
	return v, ok
}

// Insert registers a new token/value pair.
func (m *TokenMap[T]) Insert(t Token, v T) {
	m.forward[t] = v
	m.inverted[v] = t
}

// Len returns the number of registered pairs.
func (m *TokenMap[T]) Len() int {
	return len(m.forward)
}
