package input

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const (
	keyLeftCtrl = 29 // evdev KEY_LEFTCTRL
	keyA        = 30 // evdev KEY_A
)

// newForwarder returns a forwarder writing into a pipe plus a drain
// function that reads back everything written so far.
func newForwarder(t *testing.T) (*Forwarder, func() []byte) {
	t.Helper()
	fds := make([]int, 2)
	require.NoError(t, unix.Pipe(fds))
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	require.NoError(t, unix.SetNonblock(fds[0], true))

	read := func() []byte {
		var out []byte
		buf := make([]byte, 4096)
		for {
			n, err := unix.Read(fds[0], buf)
			if n <= 0 || err != nil {
				return out
			}
			out = append(out, buf[:n]...)
		}
	}

	f, err := New(fds[1])
	require.NoError(t, err)
	return f, read
}

func TestCreateEvent(t *testing.T) {
	_, read := newForwarder(t)
	ev := read()

	require.Len(t, ev, create2RdDataOff+len(reportDescriptor))
	assert.Equal(t, uhidCreate2, binary.LittleEndian.Uint32(ev))
	assert.Equal(t, []byte(deviceName), ev[4:4+len(deviceName)])
	assert.EqualValues(t, len(reportDescriptor),
		binary.LittleEndian.Uint16(ev[create2RdSizeOff:]))
	assert.EqualValues(t, busUSB, binary.LittleEndian.Uint16(ev[create2BusOff:]))
	assert.Equal(t, reportDescriptor[:], ev[create2RdDataOff:])
}

func TestKeyboardReport(t *testing.T) {
	f, read := newForwarder(t)
	read()

	require.NoError(t, f.KeyPress(keyLeftCtrl, true))
	ev := read()
	require.Len(t, ev, input2DataOff+8)
	assert.Equal(t, uhidInput2, binary.LittleEndian.Uint32(ev))
	assert.EqualValues(t, 8, binary.LittleEndian.Uint16(ev[4:]))
	// Report id, LCTRL modifier bit, no usages.
	assert.Equal(t, []byte{0x01, 0x01, 0, 0, 0, 0, 0, 0}, ev[input2DataOff:])

	require.NoError(t, f.KeyPress(keyA, true))
	ev = read()
	assert.Equal(t, []byte{0x01, 0x01, 0x04, 0, 0, 0, 0, 0}, ev[input2DataOff:])

	require.NoError(t, f.KeyPress(keyLeftCtrl, false))
	ev = read()
	assert.Equal(t, []byte{0x01, 0x00, 0x04, 0, 0, 0, 0, 0}, ev[input2DataOff:])
}

func TestKeyPressRepeatSuppressed(t *testing.T) {
	f, read := newForwarder(t)
	read()

	require.NoError(t, f.KeyPress(keyA, true))
	read()
	require.NoError(t, f.KeyPress(keyA, true))
	assert.Empty(t, read())
}

func TestUnmappedKeyProducesEmptyReport(t *testing.T) {
	f, read := newForwarder(t)
	read()

	// Evdev code 0x70 has no HID usage; the state change still emits a
	// report, with no usages recorded.
	require.NoError(t, f.KeyPress(0x70, true))
	ev := read()
	assert.Equal(t, []byte{0x01, 0, 0, 0, 0, 0, 0, 0}, ev[input2DataOff:])
}

func TestMouseButton(t *testing.T) {
	f, read := newForwarder(t)
	read()

	require.NoError(t, f.MouseButton(BtnLeft, true))
	ev := read()
	require.Len(t, ev, input2DataOff+7)
	assert.Equal(t, []byte{0x02, 0x01, 0, 0, 0, 0, 0}, ev[input2DataOff:])

	require.NoError(t, f.MouseButton(BtnMiddle, true))
	ev = read()
	assert.Equal(t, []byte{0x02, 0x05, 0, 0, 0, 0, 0}, ev[input2DataOff:])

	// Unknown buttons are ignored without a report.
	require.NoError(t, f.MouseButton(0x118, true))
	assert.Empty(t, read())
}

func TestMouseMove(t *testing.T) {
	f, read := newForwarder(t)
	read()

	require.NoError(t, f.MouseMove(-2, 515))
	ev := read()
	assert.Equal(t, []byte{0x02, 0, 0xfe, 0xff, 0x03, 0x02, 0}, ev[input2DataOff:])
}

func TestMouseWheel(t *testing.T) {
	f, read := newForwarder(t)
	read()

	require.NoError(t, f.MouseWheel(-1))
	ev := read()
	assert.Equal(t, []byte{0x02, 0, 0, 0, 0, 0, 0xff}, ev[input2DataOff:])
}

func TestHandsoff(t *testing.T) {
	f, read := newForwarder(t)
	read()

	require.NoError(t, f.KeyPress(keyLeftCtrl, true))
	require.NoError(t, f.KeyPress(keyA, true))
	read()

	// Focus loss: state cleared, bare input event emitted.
	require.NoError(t, f.Handsoff())
	ev := read()
	require.Len(t, ev, 4)
	assert.Equal(t, uhidInput2, binary.LittleEndian.Uint32(ev))

	// Subsequent reports reflect the fresh state, not the stuck keys.
	require.NoError(t, f.KeyPress(keyA, true))
	ev = read()
	assert.Equal(t, []byte{0x01, 0x00, 0x04, 0, 0, 0, 0, 0}, ev[input2DataOff:])
}

func TestDestroyEvent(t *testing.T) {
	f, read := newForwarder(t)
	read()

	f.Close()
	ev := read()
	require.Len(t, ev, 4)
	assert.Equal(t, uhidDestroy, binary.LittleEndian.Uint32(ev))
}
