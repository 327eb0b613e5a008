package input

import (
	"encoding/binary"
)

// UHID event types, linux/uhid.h.
const (
	uhidDestroy uint32 = 1
	uhidCreate2 uint32 = 11
	uhidInput2  uint32 = 12
)

const busUSB uint16 = 0x03

// Composite keyboard+mouse report descriptor: collection one is the
// 8-byte boot keyboard report (id 1), collection two the 7-byte relative
// mouse report (id 2). Byte-for-byte part of the device contract.
var reportDescriptor = [108]byte{
	0x05, 0x01, 0x09, 0x06, 0xa1, 0x01, 0x85, 0x01, 0x05, 0x07, 0x19,
	0xe0, 0x29, 0xe7, 0x15, 0x00, 0x25, 0x01, 0x75, 0x01, 0x95, 0x08,
	0x81, 0x02, 0x95, 0x06, 0x75, 0x08, 0x15, 0x00, 0x26, 0xdd, 0x00,
	0x05, 0x07, 0x19, 0x00, 0x29, 0xdd, 0x81, 0x00, 0xc0, 0x05, 0x01,
	0x09, 0x02, 0xa1, 0x01, 0x85, 0x02, 0x09, 0x01, 0xa1, 0x00, 0x05,
	0x09, 0x19, 0x01, 0x29, 0x05, 0x15, 0x00, 0x25, 0x01, 0x95, 0x05,
	0x75, 0x01, 0x81, 0x02, 0x95, 0x01, 0x75, 0x03, 0x81, 0x01, 0x05,
	0x01, 0x09, 0x30, 0x09, 0x31, 0x16, 0x01, 0x80, 0x26, 0xff, 0x7f,
	0x75, 0x10, 0x95, 0x02, 0x81, 0x06, 0x09, 0x38, 0x15, 0x81, 0x25,
	0x7f, 0x75, 0x08, 0x95, 0x01, 0x81, 0x06, 0xc0, 0xc0,
}

const deviceName = "Virtual input device"

// Field offsets inside struct uhid_event for the members the forwarder
// emits. Events are written truncated at the end of their used payload,
// the way the kernel interface permits.
const (
	create2RdSizeOff = 4 + 128 + 64 + 64 // after name, phys, uniq
	create2BusOff    = create2RdSizeOff + 2
	create2VendorOff = create2BusOff + 2
	create2RdDataOff = create2VendorOff + 4 + 4 + 4 + 4
	input2DataOff    = 4 + 2 // event type, report size
)

// marshalCreate2 builds the UHID_CREATE2 event describing the composite
// device, truncated after the descriptor bytes.
func marshalCreate2() []byte {
	b := make([]byte, create2RdDataOff+len(reportDescriptor))
	binary.LittleEndian.PutUint32(b, uhidCreate2)
	copy(b[4:], deviceName)
	binary.LittleEndian.PutUint16(b[create2RdSizeOff:], uint16(len(reportDescriptor)))
	binary.LittleEndian.PutUint16(b[create2BusOff:], busUSB)
	copy(b[create2RdDataOff:], reportDescriptor[:])
	return b
}

// marshalInput2 builds a UHID_INPUT2 event around one HID report.
func marshalInput2(report []byte) []byte {
	b := make([]byte, input2DataOff+len(report))
	binary.LittleEndian.PutUint32(b, uhidInput2)
	binary.LittleEndian.PutUint16(b[4:], uint16(len(report)))
	copy(b[input2DataOff:], report)
	return b
}

// marshalBareInput2 builds the bare UHID_INPUT2 event emitted on focus
// loss: just the type word, nothing else.
func marshalBareInput2() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uhidInput2)
	return b
}

// marshalDestroy builds the teardown event.
func marshalDestroy() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uhidDestroy)
	return b
}
