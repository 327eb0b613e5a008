// Package window defines the presenter contract: the compositor client
// that imports the decoder's dmabuf frames, scales them into a surface
// and feeds local input back. The receiver core only depends on this
// interface; a headless implementation keeps the binary complete when no
// compositor is attached.
package window

import (
	"github.com/deskstream/receiver/internal/decode"
	"github.com/deskstream/receiver/internal/hevc"
)

// EventHandlers receives lifecycle and input events from the compositor.
// Handlers run on the event-loop thread.
type EventHandlers struct {
	OnClose  func()
	OnFocus  func(focused bool)
	OnKey    func(key uint, pressed bool)
	OnMove   func(dx, dy int)
	OnButton func(button uint, pressed bool)
	OnWheel  func(delta int)
}

// Window is the presenter. Frames are handed over once, wrapped by the
// implementation, and shown by pool index afterwards.
type Window interface {
	// HandleFrames receives the ordered surface pool exactly once per
	// session.
	HandleFrames(frames []*decode.Frame) error

	// ShowFrame presents the frame at the given pool index with the
	// given crop.
	ShowFrame(index int, crop hevc.CropRect) error

	// EventsFd returns the descriptor the event loop polls for
	// compositor events.
	EventsFd() int

	// DispatchEvents drains pending compositor events into the
	// registered handlers.
	DispatchEvents() error

	Close()
}
