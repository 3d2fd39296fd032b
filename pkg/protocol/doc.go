// Package protocol implements the binary wire format between a live target
// and the browser mirroring it.
//
// # Wire Format
//
// Every message is a frame with a 6-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameMutations (0x01): server to client, one flushed batch
//   - FrameEvent (0x02): client to server, a delegated DOM event
//   - FrameControl (0x03): ping, pong and close in both directions
//   - FrameError (0x04): server to client, a coded error
//
// # Encoding
//
//   - Varint: unsigned integers, protobuf-style
//   - Length-prefixed: strings and byte slices carry a varint length
//   - Big-endian: the fixed-width header length
//
// # Mutations
//
// A mutation batch is a sequence number followed by a count and the
// mutations in order. Each mutation starts with its op byte and the id of
// the element it targets:
//
//	SetAttribute:          [op][id][name][value]
//	RemoveAttribute:       [op][id][name]
//	SetTextContent:        [op][id][text]
//	InsertAdjacentHTML:    [op][id][position][html]
//	InsertAdjacentElement: [op][id][position][moved id]
//	SetOuterHTML:          [op][id][html]
//	Remove:                [op][id]
//
// Positions use the byte values of vdom.Position.
package protocol
