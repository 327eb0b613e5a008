// Package input forwards local keyboard and pointer events to the server
// as virtual-HID device traffic: state is tracked as bitsets, each change
// is formatted into a HID report and drained onto the transport.
package input

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/deskstream/receiver/internal/logging"
)

var log = logging.DefaultLogger.WithTag("input")

// Pointer button evdev codes, linux/input-event-codes.h.
const (
	BtnLeft   = 0x110
	BtnRight  = 0x111
	BtnMiddle = 0x112
)

// Forwarder owns the virtual-device lifecycle on the transport and the
// current keyboard/button state.
type Forwarder struct {
	fd          int
	buttonState uint8
	keyState    [4]uint64
}

// New announces the composite device to the server with a UHID_CREATE2
// event.
func New(fd int) (*Forwarder, error) {
	f := &Forwarder{fd: fd}
	if err := f.drain(marshalCreate2()); err != nil {
		return nil, errors.Wrap(err, "announce device")
	}
	return f, nil
}

// drain writes the whole event, retrying short writes and EINTR.
func (f *Forwarder) drain(data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(f.fd, data)
		if n > 0 {
			data = data[n:]
			continue
		}
		if err == unix.EINTR {
			continue
		}
		return errors.Wrap(err, "write event")
	}
	return nil
}

// keyboardReport formats the 8-byte boot report from the key bitset:
// report id, modifier bits for usages 0xe0..0xe7, then up to six usage
// codes in scan order.
func (f *Forwarder) keyboardReport() []byte {
	report := make([]byte, 8)
	report[0] = 0x01
	size := 1
	code := 0
	for _, row := range f.keyState {
		for shift := 0; shift < 64; shift, code = shift+1, code+1 {
			if row&(1<<uint(shift)) == 0 {
				continue
			}
			usage := evdevToHID[code]
			if usage == 0 {
				continue
			}
			if size == 1 {
				size = 2
			}
			if usage >= 0xe0 {
				report[1] |= 1 << (usage - 0xe0)
			} else if size < len(report) {
				report[size] = usage
				size++
			}
		}
	}
	return report
}

// mouseReport formats the 7-byte relative report: report id, button
// bits, two little-endian 16-bit deltas and a signed wheel byte.
func (f *Forwarder) mouseReport(dx, dy, wheel int) []byte {
	return []byte{
		0x02,
		f.buttonState,
		uint8(dx), uint8(dx >> 8),
		uint8(dy), uint8(dy >> 8),
		uint8(wheel),
	}
}

// KeyPress records an evdev key transition and sends the refreshed
// keyboard report. Repeated states are suppressed.
func (f *Forwarder) KeyPress(evdevCode uint, pressed bool) error {
	row := evdevCode >> 6 & 0x3
	shift := evdevCode & 0x3f
	state := f.keyState[row] &^ (1 << shift)
	if pressed {
		state |= 1 << shift
	}
	if state == f.keyState[row] {
		return nil
	}
	f.keyState[row] = state
	return f.drain(marshalInput2(f.keyboardReport()))
}

// MouseMove sends a relative motion report.
func (f *Forwarder) MouseMove(dx, dy int) error {
	return f.drain(marshalInput2(f.mouseReport(dx, dy, 0)))
}

// MouseButton records a button transition and sends the refreshed mouse
// report. Unknown buttons are ignored.
func (f *Forwarder) MouseButton(button uint, pressed bool) error {
	var shift uint8
	switch button {
	case BtnLeft:
		shift = 0
	case BtnRight:
		shift = 1
	case BtnMiddle:
		shift = 2
	default:
		return nil
	}

	state := f.buttonState &^ (1 << shift)
	if pressed {
		state |= 1 << shift
	}
	if state == f.buttonState {
		return nil
	}
	f.buttonState = state
	return f.drain(marshalInput2(f.mouseReport(0, 0, 0)))
}

// MouseWheel sends a wheel report.
func (f *Forwarder) MouseWheel(delta int) error {
	return f.drain(marshalInput2(f.mouseReport(0, 0, delta)))
}

// Handsoff clears the keyboard state and emits a bare input event so the
// server releases any keys stuck across a focus loss.
func (f *Forwarder) Handsoff() error {
	f.keyState = [4]uint64{}
	return f.drain(marshalBareInput2())
}

// Close tears the virtual device down.
func (f *Forwarder) Close() {
	if err := f.drain(marshalDestroy()); err != nil {
		log.Warn("Failed to destroy device: %v", err)
	}
}
