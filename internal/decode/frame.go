package decode

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/deskstream/receiver/internal/va"
)

// Plane is one dmabuf plane of a decoded frame.
type Plane struct {
	DmabufFD int
	Pitch    uint32
	Offset   uint32
	Modifier uint64
}

// Frame wraps the dmabuf export of one decoder surface. The presenter
// imports the planes once, at pool handoff, and afterwards refers to the
// frame by its pool index.
type Frame struct {
	Width  uint32
	Height uint32
	Fourcc uint32
	Planes []Plane
}

// newFrame duplicates the exported object descriptors into per-plane fds
// owned by the frame. The caller still owns (and closes) the originals.
func newFrame(exp *va.Exported) (*Frame, error) {
	frame := &Frame{
		Width:  exp.Width,
		Height: exp.Height,
		Fourcc: exp.Fourcc,
	}
	for i := uint32(0); i < exp.Layer.NumPlanes; i++ {
		obj := exp.Objects[exp.Layer.ObjectIndex[i]]
		fd, err := unix.Dup(int(obj.FD))
		if err != nil {
			frame.Close()
			return nil, errors.Wrap(err, "dup dmabuf fd")
		}
		frame.Planes = append(frame.Planes, Plane{
			DmabufFD: fd,
			Pitch:    exp.Layer.Pitch[i],
			Offset:   exp.Layer.Offset[i],
			Modifier: obj.Modifier,
		})
	}
	return frame, nil
}

// Close releases the plane descriptors.
func (f *Frame) Close() {
	for i := len(f.Planes); i > 0; i-- {
		unix.Close(f.Planes[i-1].DmabufFD)
	}
	f.Planes = nil
}
