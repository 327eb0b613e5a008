package input

// evdevToHID is the fixed translation from evdev keycodes to HID usage
// codes. It is part of the contract with the report descriptor and must
// not change: 0x00 marks codes with no mapping.
var evdevToHID = [256]uint8{
	/* 0x00 */ 0x00, 0x29, 0x1e, 0x1f, 0x20, 0x21, 0x22, 0x23,
	/* 0x08 */ 0x24, 0x25, 0x26, 0x27, 0x2d, 0x2e, 0x2a, 0x2b,
	/* 0x10 */ 0x14, 0x1a, 0x08, 0x15, 0x17, 0x1c, 0x18, 0x0c,
	/* 0x18 */ 0x12, 0x13, 0x2f, 0x30, 0x28, 0xe0, 0x04, 0x16,
	/* 0x20 */ 0x07, 0x09, 0x0a, 0x0b, 0x0d, 0x0e, 0x0f, 0x33,
	/* 0x28 */ 0x34, 0x35, 0xe1, 0x31, 0x1d, 0x1b, 0x06, 0x19,
	/* 0x30 */ 0x05, 0x11, 0x10, 0x36, 0x37, 0x38, 0xe5, 0x55,
	/* 0x38 */ 0xe2, 0x2c, 0x39, 0x3a, 0x3b, 0x3c, 0x3d, 0x3e,
	/* 0x40 */ 0x3f, 0x40, 0x41, 0x42, 0x43, 0x53, 0x47, 0x5f,
	/* 0x48 */ 0x60, 0x61, 0x56, 0x5c, 0x5d, 0x5e, 0x57, 0x59,
	/* 0x50 */ 0x5a, 0x5b, 0x62, 0x63, 0x00, 0x94, 0x64, 0x44,
	/* 0x58 */ 0x45, 0x87, 0x92, 0x93, 0x8a, 0x88, 0x8b, 0x00,
	/* 0x60 */ 0x58, 0xe4, 0x54, 0x46, 0xe6, 0x00, 0x4a, 0x52,
	/* 0x68 */ 0x4b, 0x50, 0x4f, 0x4d, 0x51, 0x4e, 0x49, 0x4c,
	/* 0x70 */ 0x00, 0x7f, 0x81, 0x80, 0x66, 0x67, 0xd7, 0x48,
	/* 0x78 */ 0x00, 0x85, 0x90, 0x91, 0x89, 0xe3, 0xe7, 0x65,
	/* 0x80 */ 0x00, 0x79, 0x00, 0x7a, 0x77, 0x7c, 0x74, 0x7d,
	/* 0x88 */ 0x7e, 0x7b, 0x75, 0x00, 0x00, 0x00, 0x00, 0x00,
	/* 0x90 */ 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	/* 0x98 */ 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	/* 0xa0 */ 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	/* 0xa8 */ 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	/* 0xb0 */ 0x00, 0x00, 0x00, 0xb6, 0xb7, 0x00, 0x00, 0x68,
	/* 0xb8 */ 0x69, 0x6a, 0x6b, 0x6c, 0x6d, 0x6e, 0x6f, 0x70,
	/* 0xc0 */ 0x71, 0x72, 0x73, 0x00, 0x00, 0x00, 0x00, 0x00,
	/* 0xc8 */ 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	/* 0xd0 */ 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	/* 0xd8 */ 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	/* 0xe0 */ 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	/* 0xe8 */ 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	/* 0xf0 */ 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	/* 0xf8 */ 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}
