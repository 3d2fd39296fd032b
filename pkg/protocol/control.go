package protocol

import "fmt"

// ControlType identifies a control message.
type ControlType uint8

const (
	ControlPing  ControlType = 0x01 // Liveness probe
	ControlPong  ControlType = 0x02 // Response to ping
	ControlClose ControlType = 0x10 // Session close
)

// String returns the name of the control type.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	case ControlClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// Control is a control message. Value is the timestamp in milliseconds for
// ping and pong, and the close reason for close.
type Control struct {
	Type  ControlType
	Value uint64
}

// EncodeControl encodes c as a control payload.
func EncodeControl(c *Control) []byte {
	e := NewEncoder()
	e.WriteByte(byte(c.Type))
	e.WriteUvarint(c.Value)
	return e.Bytes()
}

// DecodeControl decodes a control payload.
func DecodeControl(data []byte) (*Control, error) {
	d := NewDecoder(data)
	b, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	c := &Control{Type: ControlType(b)}
	if c.Type.String() == "Unknown" {
		return nil, fmt.Errorf("protocol: invalid control type 0x%02x", b)
	}
	if c.Value, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	return c, nil
}

// ErrorMessage reports a coded error to the peer.
type ErrorMessage struct {
	Code    string
	Message string
	Fatal   bool
}

// EncodeErrorMessage encodes em as an error payload.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteString(em.Code)
	e.WriteString(em.Message)
	if em.Fatal {
		e.WriteByte(1)
	} else {
		e.WriteByte(0)
	}
	return e.Bytes()
}

// DecodeErrorMessage decodes an error payload.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	em := &ErrorMessage{}
	var err error
	if em.Code, err = d.ReadString(); err != nil {
		return nil, err
	}
	if em.Message, err = d.ReadString(); err != nil {
		return nil, err
	}
	fatal, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	em.Fatal = fatal != 0
	return em, nil
}
