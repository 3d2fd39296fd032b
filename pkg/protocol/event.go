package protocol

import (
	"encoding/json"
	"fmt"
)

// Event is a DOM event delegated by the client.
//
// Selector is the CSS selector of the listener that matched. Target is the
// id of the element the event was dispatched on. Attrs holds that element's
// attributes as a JSON object.
type Event struct {
	Seq      uint64
	Type     string
	Selector string
	Target   string
	Attrs    json.RawMessage
}

// AttrMap decodes Attrs. An empty Attrs yields an empty map.
func (e *Event) AttrMap() (map[string]string, error) {
	out := map[string]string{}
	if len(e.Attrs) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(e.Attrs, &out); err != nil {
		return nil, fmt.Errorf("protocol: event attrs: %w", err)
	}
	return out, nil
}

// EncodeEvent encodes ev as an event payload.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	e.WriteUvarint(ev.Seq)
	e.WriteString(ev.Type)
	e.WriteString(ev.Selector)
	e.WriteString(ev.Target)
	e.WriteLenBytes(ev.Attrs)
	return e.Bytes()
}

// DecodeEvent decodes an event payload.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	ev := &Event{}
	var err error
	if ev.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if ev.Type, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("protocol: event without type")
	}
	if ev.Selector, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Target, err = d.ReadString(); err != nil {
		return nil, err
	}
	attrs, err := d.ReadLenBytes()
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		ev.Attrs = attrs
	}
	return ev, nil
}
