package protocol

import (
	"errors"
	"io"
)

// FrameHeaderSize is the size of the frame header in bytes.
const FrameHeaderSize = 6

// MaxPayloadSize bounds the payload of a single frame.
const MaxPayloadSize = 16 * 1024 * 1024

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameMutations FrameType = 0x01 // Server → Client mutation batch
	FrameEvent     FrameType = 0x02 // Client → Server delegated event
	FrameControl   FrameType = 0x03 // Ping, pong, close
	FrameError     FrameType = 0x04 // Coded error
)

// String returns the name of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameMutations:
		return "Mutations"
	case FrameEvent:
		return "Event"
	case FrameControl:
		return "Control"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FrameFlags are optional per-frame flags.
type FrameFlags uint8

const (
	// FlagReset tells the client to clear its container before applying
	// the batch. It is set on the first batch a connection receives.
	FlagReset FrameFlags = 0x01
)

// Has reports whether ff contains flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is a header plus payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame creates a frame without flags.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode returns the frame including its header.
func (f *Frame) Encode() []byte {
	e := &Encoder{buf: make([]byte, 0, FrameHeaderSize+len(f.Payload))}
	e.WriteByte(byte(f.Type))
	e.WriteByte(byte(f.Flags))
	e.WriteUint32(uint32(len(f.Payload)))
	e.buf = append(e.buf, f.Payload...)
	return e.buf
}

// DecodeFrame decodes one complete frame from data. Trailing bytes are an
// error.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	ft, flags, length, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data)-FrameHeaderSize < length {
		return nil, io.ErrUnexpectedEOF
	}
	if len(data)-FrameHeaderSize > length {
		return nil, errors.New("protocol: trailing bytes after frame")
	}
	payload := append([]byte(nil), data[FrameHeaderSize:]...)
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// ReadFrame reads one frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	ft, flags, length, err := decodeHeader(header[:])
	if err != nil {
		return nil, err
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// WriteFrame writes f to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}

func decodeHeader(h []byte) (FrameType, FrameFlags, int, error) {
	ft := FrameType(h[0])
	if ft < FrameMutations || ft > FrameError {
		return 0, 0, 0, ErrInvalidFrameType
	}
	length := int(h[2])<<24 | int(h[3])<<16 | int(h[4])<<8 | int(h[5])
	if length > MaxPayloadSize {
		return 0, 0, 0, ErrFrameTooLarge
	}
	return ft, FrameFlags(h[1]), length, nil
}
