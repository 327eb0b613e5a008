// Package decode drives the hardware decoder: it feeds parsed HEVC
// parameters and slice data into the acceleration backend and hands the
// resulting surfaces to the presenter through a small dmabuf-exported
// pool.
package decode

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/deskstream/receiver/internal/bits"
	"github.com/deskstream/receiver/internal/hevc"
	"github.com/deskstream/receiver/internal/logging"
	"github.com/deskstream/receiver/internal/va"
)

var log = logging.DefaultLogger.WithTag("decode")

// ErrUnsupportedStream covers both bitstreams outside the supported
// subset and accelerator failures while decoding them. The demuxer closes
// the session on it.
var ErrUnsupportedStream = errors.New("decode: unsupported stream")

// Backend is the acceleration capability the session and pool borrow. A
// *va.Display satisfies it.
type Backend interface {
	CreateConfig() (va.ConfigID, error)
	DestroyConfig(va.ConfigID)
	CreateContext(config va.ConfigID, width, height uint16) (va.ContextID, error)
	DestroyContext(va.ContextID)
	CreateSurfaces(width, height uint16, n int) ([]va.SurfaceID, error)
	DestroySurfaces([]va.SurfaceID)
	ExportSurface(va.SurfaceID) (*va.Exported, error)
	SyncSurface(va.SurfaceID) error
	CreateBuffer(ctx va.ContextID, typ int32, size int, data unsafe.Pointer) (va.BufferID, error)
	DestroyBuffer(va.BufferID)
	BeginPicture(ctx va.ContextID, target va.SurfaceID) error
	RenderPicture(ctx va.ContextID, buffers []va.BufferID) error
	EndPicture(ctx va.ContextID) error
}

// Presenter receives the one-time surface handoff and the per-frame show
// calls. Implemented by the compositor client.
type Presenter interface {
	HandleFrames(frames []*Frame) error
	ShowFrame(index int, crop hevc.CropRect) error
}

// Session owns the accelerator objects for one stream. Initialisation is
// deferred until the first PPS has been parsed, when the stream geometry
// is known.
type Session struct {
	backend   Backend
	presenter Presenter
	parser    hevc.Parser

	config      va.ConfigID
	context     va.ContextID
	pool        *pool
	initialized bool

	globalCounter uint64
	localCounter  uint64

	timing timingStats
}

func NewSession(backend Backend, presenter Presenter) *Session {
	return &Session{backend: backend, presenter: presenter}
}

// Decode consumes one video record: an Annex-B sequence of NAL units
// forming at most one coded picture. Parameter sets update the parser
// state; slices are submitted to the accelerator.
func (s *Session) Decode(payload []byte) error {
	received := nowMicros()

	outer := bits.NewReader(payload)
	for outer.Avail() {
		nalu, ok := outer.ReadNALU()
		if !ok {
			return errors.Wrap(ErrUnsupportedStream, "malformed start code")
		}

		err := bits.Catch(func() {
			switch nalType := hevc.ParseNALUHeader(nalu); nalType {
			case hevc.NALSPS:
				s.parser.ParseSPS(nalu)
			case hevc.NALPPS:
				s.parser.ParsePPS(nalu)
			case hevc.NALTrailR, hevc.NALIDRWRadl:
				if !s.parser.HeaderComplete() {
					// Slices can legally precede the parameter sets
					// after a mid-stream join; wait for the keyframe.
					log.Debug("Dropping slice before parameter sets")
					return
				}
				s.parser.ParseSliceHeader(nalu, nalType)
				if err := s.decodePicture(nalu, nalType); err != nil {
					bits.Fail(err)
				}
			default:
				// VPS, AUD and other types carry nothing we need.
			}
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnsupportedStream, err)
		}
	}

	s.timing.record(received, nowMicros(), len(payload))
	return nil
}

// initialize creates the accelerator config, context and surface pool at
// the geometry discovered from the stream, then hands the exported frames
// to the presenter.
func (s *Session) initialize() error {
	width := s.parser.Pic.PicWidthInLumaSamples
	height := s.parser.Pic.PicHeightInLumaSamples

	config, err := s.backend.CreateConfig()
	if err != nil {
		return errors.Wrap(err, "create config")
	}
	context, err := s.backend.CreateContext(config, width, height)
	if err != nil {
		s.backend.DestroyConfig(config)
		return errors.Wrap(err, "create context")
	}
	pool, err := newPool(s.backend, width, height, PoolSize)
	if err != nil {
		s.backend.DestroyContext(context)
		s.backend.DestroyConfig(config)
		return err
	}
	if err := s.presenter.HandleFrames(pool.Frames()); err != nil {
		pool.Close()
		s.backend.DestroyContext(context)
		s.backend.DestroyConfig(config)
		return errors.Wrap(err, "hand off frames")
	}

	s.config = config
	s.context = context
	s.pool = pool
	s.initialized = true
	log.Info("Initialized decoder %dx%d, %d surfaces", width, height, PoolSize)
	return nil
}

// decodePicture executes one picture: populate the parameter buffers,
// upload, render, await the sync point, publish the output.
func (s *Session) decodePicture(nalu *bits.Reader, nalType uint8) error {
	if !s.initialized {
		if err := s.initialize(); err != nil {
			return err
		}
	}

	current := int(s.globalCounter % uint64(s.pool.size()))
	currentID := s.pool.surfaceID(current)

	if hevc.IsIDR(nalType) {
		s.localCounter = 0
	}

	ppb := va.PackPictureParams(&s.parser.Pic)
	ppb.CurrPic = va.PictureHEVC{
		PictureID:   currentID,
		PicOrderCnt: int32(s.localCounter),
	}
	for i := range ppb.ReferenceFrames {
		ppb.ReferenceFrames[i].PictureID = va.InvalidSurface
	}
	if hevc.IsIRAP(nalType) {
		ppb.SliceParsingFields |= va.SliceParsingRapPic
	}
	if hevc.IsIDR(nalType) {
		ppb.SliceParsingFields |= va.SliceParsingIdrPic
	}
	if hevc.IsIntra(nalType) {
		ppb.SliceParsingFields |= va.SliceParsingIntraPic
	}

	spb := va.PackSliceParams(&s.parser.Slice, nalu.Len())

	if s.localCounter > 0 {
		prev := int((s.globalCounter - 1) % uint64(s.pool.size()))
		ppb.ReferenceFrames[0] = va.PictureHEVC{
			PictureID:   s.pool.surfaceID(prev),
			PicOrderCnt: int32(s.localCounter) - 1,
			Flags:       va.PictureRPSStCurrBefore,
		}
		spb.RefPicList[0][0] = 0
	}

	s.pool.lock(current)

	if err := s.submit(currentID, &ppb, &spb, nalu.Bytes()); err != nil {
		return err
	}
	if err := s.backend.SyncSurface(currentID); err != nil {
		return errors.Wrap(err, "sync surface")
	}

	s.globalCounter++
	s.localCounter++

	show := s.pool.unlockOthers(currentID)
	if err := s.presenter.ShowFrame(show, s.parser.Crop); err != nil {
		return errors.Wrap(err, "show frame")
	}
	return nil
}

// submit uploads the three buffers and runs the begin/render/end picture
// sequence. The buffers are destroyed on every exit path, in reverse
// creation order.
func (s *Session) submit(target va.SurfaceID, ppb *va.PictureParameterBufferHEVC,
	spb *va.SliceParameterBufferHEVC, data []byte) error {

	ppbID, err := s.backend.CreateBuffer(s.context, va.BufferPictureParameter,
		int(unsafe.Sizeof(*ppb)), unsafe.Pointer(ppb))
	if err != nil {
		return errors.Wrap(err, "upload picture parameters")
	}
	defer s.backend.DestroyBuffer(ppbID)

	spbID, err := s.backend.CreateBuffer(s.context, va.BufferSliceParameter,
		int(unsafe.Sizeof(*spb)), unsafe.Pointer(spb))
	if err != nil {
		return errors.Wrap(err, "upload slice parameters")
	}
	defer s.backend.DestroyBuffer(spbID)

	sdbID, err := s.backend.CreateBuffer(s.context, va.BufferSliceData,
		len(data), unsafe.Pointer(&data[0]))
	if err != nil {
		return errors.Wrap(err, "upload slice data")
	}
	defer s.backend.DestroyBuffer(sdbID)

	if err := s.backend.BeginPicture(s.context, target); err != nil {
		return errors.Wrap(err, "begin picture")
	}
	if err := s.backend.RenderPicture(s.context,
		[]va.BufferID{ppbID, spbID, sdbID}); err != nil {
		return errors.Wrap(err, "render picture")
	}
	if err := s.backend.EndPicture(s.context); err != nil {
		return errors.Wrap(err, "end picture")
	}
	return nil
}

// Close releases the accelerator objects in reverse acquisition order.
func (s *Session) Close() {
	if !s.initialized {
		return
	}
	s.pool.Close()
	s.backend.DestroyContext(s.context)
	s.backend.DestroyConfig(s.config)
	s.initialized = false
}
