package protocol

import (
	"errors"
	"fmt"

	"github.com/vango-dev/vmirror/pkg/vdom"
)

// Op is the kind of a mutation.
type Op uint8

// Mutation operations. They mirror the calls of vdom.Target.
const (
	OpSetAttribute          Op = 0x01
	OpRemoveAttribute       Op = 0x02
	OpSetTextContent        Op = 0x03
	OpInsertAdjacentHTML    Op = 0x04
	OpInsertAdjacentElement Op = 0x05
	OpSetOuterHTML          Op = 0x06
	OpRemove                Op = 0x07
)

var opNames = [...]string{
	OpSetAttribute:          "set_attribute",
	OpRemoveAttribute:       "remove_attribute",
	OpSetTextContent:        "set_text_content",
	OpInsertAdjacentHTML:    "insert_adjacent_html",
	OpInsertAdjacentElement: "insert_adjacent_element",
	OpSetOuterHTML:          "set_outer_html",
	OpRemove:                "remove",
}

// String returns the snake_case name of the operation.
func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "unknown"
}

// ErrInvalidOp is returned when a batch contains an unknown operation.
var ErrInvalidOp = errors.New("protocol: invalid mutation op")

// Mutation is one target call addressed by element id.
//
// Name is the attribute name. Value carries the attribute value, the text
// or the markup, depending on Op. Moved is the id of the element relocated
// by OpInsertAdjacentElement.
type Mutation struct {
	Op       Op
	Target   string
	Position vdom.Position
	Name     string
	Value    string
	Moved    string
}

// String formats m the way call logs print target calls.
func (m Mutation) String() string {
	switch m.Op {
	case OpSetAttribute:
		return fmt.Sprintf("%s #%s %s=%s", m.Op, m.Target, m.Name, m.Value)
	case OpRemoveAttribute:
		return fmt.Sprintf("%s #%s %s", m.Op, m.Target, m.Name)
	case OpSetTextContent:
		return fmt.Sprintf("%s #%s %q", m.Op, m.Target, m.Value)
	case OpInsertAdjacentHTML:
		return fmt.Sprintf("%s #%s %s %s", m.Op, m.Target, m.Position, m.Value)
	case OpInsertAdjacentElement:
		return fmt.Sprintf("%s #%s %s #%s", m.Op, m.Target, m.Position, m.Moved)
	case OpSetOuterHTML:
		return fmt.Sprintf("%s #%s %s", m.Op, m.Target, m.Value)
	default:
		return fmt.Sprintf("%s #%s", m.Op, m.Target)
	}
}

// Batch is the mutations of one flush.
type Batch struct {
	Seq       uint64
	Mutations []Mutation
}

// EncodeBatch encodes b as a mutation payload.
func EncodeBatch(b *Batch) []byte {
	e := NewEncoder()
	EncodeBatchTo(e, b)
	return e.Bytes()
}

// EncodeBatchTo encodes b using e.
func EncodeBatchTo(e *Encoder, b *Batch) {
	e.WriteUvarint(b.Seq)
	e.WriteUvarint(uint64(len(b.Mutations)))
	for i := range b.Mutations {
		encodeMutation(e, &b.Mutations[i])
	}
}

func encodeMutation(e *Encoder, m *Mutation) {
	e.WriteByte(byte(m.Op))
	e.WriteString(m.Target)
	switch m.Op {
	case OpSetAttribute:
		e.WriteString(m.Name)
		e.WriteString(m.Value)
	case OpRemoveAttribute:
		e.WriteString(m.Name)
	case OpSetTextContent, OpSetOuterHTML:
		e.WriteString(m.Value)
	case OpInsertAdjacentHTML:
		e.WriteByte(byte(m.Position))
		e.WriteString(m.Value)
	case OpInsertAdjacentElement:
		e.WriteByte(byte(m.Position))
		e.WriteString(m.Moved)
	}
}

// DecodeBatch decodes a mutation payload.
func DecodeBatch(data []byte) (*Batch, error) {
	d := NewDecoder(data)
	b, err := DecodeBatchFrom(d)
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, fmt.Errorf("protocol: %d trailing bytes after batch", d.Remaining())
	}
	return b, nil
}

// DecodeBatchFrom decodes a mutation batch from d.
func DecodeBatchFrom(d *Decoder) (*Batch, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	n, err := d.ReadCount()
	if err != nil {
		return nil, err
	}
	b := &Batch{Seq: seq, Mutations: make([]Mutation, n)}
	for i := range b.Mutations {
		if err := decodeMutation(d, &b.Mutations[i]); err != nil {
			return nil, fmt.Errorf("mutation %d: %w", i, err)
		}
	}
	return b, nil
}

func decodeMutation(d *Decoder, m *Mutation) error {
	op, err := d.ReadByte()
	if err != nil {
		return err
	}
	m.Op = Op(op)
	if m.Op < OpSetAttribute || m.Op > OpRemove {
		return fmt.Errorf("%w 0x%02x", ErrInvalidOp, op)
	}
	if m.Target, err = d.ReadString(); err != nil {
		return err
	}
	switch m.Op {
	case OpSetAttribute:
		if m.Name, err = d.ReadString(); err != nil {
			return err
		}
		m.Value, err = d.ReadString()
	case OpRemoveAttribute:
		m.Name, err = d.ReadString()
	case OpSetTextContent, OpSetOuterHTML:
		m.Value, err = d.ReadString()
	case OpInsertAdjacentHTML:
		if m.Position, err = readPosition(d); err != nil {
			return err
		}
		m.Value, err = d.ReadString()
	case OpInsertAdjacentElement:
		if m.Position, err = readPosition(d); err != nil {
			return err
		}
		m.Moved, err = d.ReadString()
	}
	return err
}

func readPosition(d *Decoder) (vdom.Position, error) {
	b, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	p := vdom.Position(b)
	if p > vdom.AfterEnd {
		return 0, fmt.Errorf("protocol: invalid position %d", b)
	}
	return p, nil
}
