package window

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/deskstream/receiver/internal/decode"
	"github.com/deskstream/receiver/internal/hevc"
	"github.com/deskstream/receiver/internal/logging"
)

var log = logging.DefaultLogger.WithTag("window")

// Headless is a presenter without a compositor: frames decode into their
// surfaces and are dropped, and the event channel is a never-signalled
// eventfd. It stands in where a compositor client would attach.
type Headless struct {
	eventFd int
	frames  int
}

func NewHeadless() (*Headless, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, errors.Wrap(err, "create eventfd")
	}
	return &Headless{eventFd: fd}, nil
}

func (h *Headless) HandleFrames(frames []*decode.Frame) error {
	h.frames = len(frames)
	log.Info("Received %d frames for presentation", len(frames))
	return nil
}

func (h *Headless) ShowFrame(index int, crop hevc.CropRect) error {
	if index < 0 || index >= h.frames {
		return errors.Errorf("window: frame index %d out of range", index)
	}
	log.Trace(1, "Show frame %d crop %dx%d+%d+%d",
		index, crop.W, crop.H, crop.X, crop.Y)
	return nil
}

func (h *Headless) EventsFd() int {
	return h.eventFd
}

func (h *Headless) DispatchEvents() error {
	var buf [8]byte
	for {
		_, err := unix.Read(h.eventFd, buf[:])
		switch err {
		case nil:
			continue
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return nil
		default:
			return errors.Wrap(err, "drain eventfd")
		}
	}
}

func (h *Headless) Close() {
	unix.Close(h.eventFd)
}
