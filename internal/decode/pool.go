package decode

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/deskstream/receiver/internal/va"
)

// PoolSize is the number of decoder surfaces kept in flight. With one
// short-term reference and no reordering, three cover current, reference
// and in-presentation frames.
const PoolSize = 3

// surface pairs one backend surface with its dmabuf export and the busy
// flag driven by the decoder's reference window.
type surface struct {
	id     va.SurfaceID
	frame  *Frame
	locked bool
}

// pool is the ordered surface allocator. Surfaces are picked by frame
// counter modulo pool size; at most one is the current decode target.
type pool struct {
	backend  Backend
	ids      []va.SurfaceID
	surfaces []surface
}

// newPool creates n decoder surfaces at the given luma geometry and
// exports each one to dmabuf.
func newPool(backend Backend, width, height uint16, n int) (*pool, error) {
	ids, err := backend.CreateSurfaces(width, height, n)
	if err != nil {
		return nil, errors.Wrap(err, "create surfaces")
	}

	p := &pool{
		backend:  backend,
		ids:      ids,
		surfaces: make([]surface, n),
	}
	for i, id := range ids {
		p.surfaces[i].id = id
	}

	for i, id := range ids {
		exp, err := backend.ExportSurface(id)
		if err != nil {
			p.Close()
			return nil, errors.Wrap(err, "export surface")
		}
		frame, ferr := newFrame(exp)
		for j := len(exp.Objects); j > 0; j-- {
			unix.Close(int(exp.Objects[j-1].FD))
		}
		if ferr != nil {
			p.Close()
			return nil, ferr
		}
		p.surfaces[i].frame = frame
	}
	return p, nil
}

func (p *pool) size() int {
	return len(p.surfaces)
}

// Frames returns the ordered dmabuf exports for the one-time presenter
// handoff.
func (p *pool) Frames() []*Frame {
	frames := make([]*Frame, len(p.surfaces))
	for i := range p.surfaces {
		frames[i] = p.surfaces[i].frame
	}
	return frames
}

func (p *pool) surfaceID(index int) va.SurfaceID {
	return p.surfaces[index].id
}

// lock marks the surface at index as the current decode target.
func (p *pool) lock(index int) {
	p.surfaces[index].locked = true
}

// unlockOthers clears the busy flag on every surface except the one the
// decoder reported, and returns the index of the first surface still
// locked, i.e. the one to show and reference next.
func (p *pool) unlockOthers(decoded va.SurfaceID) int {
	for i := range p.surfaces {
		if p.surfaces[i].id != decoded {
			p.surfaces[i].locked = false
		}
	}
	for i := range p.surfaces {
		if p.surfaces[i].locked {
			return i
		}
	}
	return -1
}

func (p *pool) Close() {
	p.backend.DestroySurfaces(p.ids)
	for i := range p.surfaces {
		if p.surfaces[i].frame != nil {
			p.surfaces[i].frame.Close()
		}
	}
}
