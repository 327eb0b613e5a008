// Package proto defines the framed-record layout spoken over the
// transport: a packed 14-byte header followed by the payload, and the
// 12-byte heartbeat record sent back to the server.
package proto

import (
	"encoding/binary"
)

// Record types.
const (
	TypeMisc  uint8 = 1
	TypeVideo uint8 = 2
	TypeAudio uint8 = 3
)

// Header flags.
const (
	FlagKeyframe uint8 = 1 << 0
)

// HeaderSize is the packed wire size of a record header.
const HeaderSize = 14

// Header precedes every inbound record.
type Header struct {
	Type    uint8
	Flags   uint8
	Latency uint64 // server-side capture latency, microseconds
	Size    uint32 // payload length
}

// ParseHeader decodes a packed header from the first HeaderSize bytes.
func ParseHeader(b []byte) Header {
	return Header{
		Type:    b[0],
		Flags:   b[1],
		Latency: binary.LittleEndian.Uint64(b[2:]),
		Size:    binary.LittleEndian.Uint32(b[10:]),
	}
}

// Keyframe reports the keyframe flag: an IDR picture for video, the
// configuration record for audio.
func (h Header) Keyframe() bool {
	return h.Flags&FlagKeyframe != 0
}

// PingSize is the packed wire size of a heartbeat record.
const PingSize = 12

const pingType = 0xffffffff

// AppendPing appends a heartbeat record carrying the given monotonic
// timestamp. The server echoes the timestamp back in a misc record.
func AppendPing(b []byte, timestamp uint64) []byte {
	b = binary.LittleEndian.AppendUint32(b, pingType)
	return binary.LittleEndian.AppendUint64(b, timestamp)
}
