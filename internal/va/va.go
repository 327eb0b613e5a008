// Package va binds the video acceleration backend (libva over a DRM
// render node) at runtime. The libraries are loaded with purego so the
// receiver builds without cgo; only the entry points the decode session
// needs are registered.
package va

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/deskstream/receiver/internal/logging"
)

var log = logging.DefaultLogger.WithTag("va")

// Status is a VAStatus return code.
type Status int32

const statusSuccess Status = 0

func (s Status) Error() string {
	if vaErrorStr != nil {
		if msg := goString(vaErrorStr(s)); msg != "" {
			return fmt.Sprintf("va: %s (%#x)", msg, int32(s))
		}
	}
	return fmt.Sprintf("va: status %#x", int32(s))
}

// check converts a VAStatus into an error, nil on success.
func check(s Status) error {
	if s == statusSuccess {
		return nil
	}
	return s
}

// Object handles. All are driver-scoped 32-bit ids.
type (
	ConfigID  uint32
	ContextID uint32
	SurfaceID uint32
	BufferID  uint32
)

// InvalidSurface marks an unused reference entry.
const InvalidSurface SurfaceID = 0xffffffff

// Profiles, entrypoints and buffer types (libva enums).
const (
	profileHEVCMain int32 = 17
	entrypointVLD   int32 = 1

	BufferPictureParameter int32 = 0
	BufferSliceParameter   int32 = 4
	BufferSliceData        int32 = 5
)

const (
	rtFormatYUV420 uint32 = 0x00000001
	fourccNV12     uint32 = 'N' | 'V'<<8 | '1'<<16 | '2'<<24

	progressivePicture uint32 = 0x1

	surfaceAttribPixelFormat int32 = 1
	surfaceAttribUsageHint   int32 = 8
	genericValueTypeInteger  int32 = 1
	surfaceAttribSettable    uint32 = 0x2

	usageHintDecoder uint32 = 0x00000001
	usageHintExport  uint32 = 0x00000020

	memTypeDRMPrime2 uint32 = 0x40000000

	exportReadOnly       uint32 = 0x0001
	exportComposedLayers uint32 = 0x0008
)

var (
	loadOnce sync.Once
	loadErr  error

	vaGetDisplayDRM func(fd int32) uintptr
	vaInitialize    func(dpy uintptr, major, minor *int32) Status
	vaTerminate     func(dpy uintptr) Status
	vaErrorStr      func(s Status) uintptr

	vaCreateConfig  func(dpy uintptr, profile, entrypoint int32, attribs uintptr, n int32, id *ConfigID) Status
	vaDestroyConfig func(dpy uintptr, id ConfigID) Status

	vaCreateContext  func(dpy uintptr, config ConfigID, width, height, flag int32, targets uintptr, n int32, id *ContextID) Status
	vaDestroyContext func(dpy uintptr, id ContextID) Status

	vaCreateSurfaces      func(dpy uintptr, format, width, height uint32, ids *SurfaceID, n uint32, attribs *surfaceAttrib, nattribs uint32) Status
	vaDestroySurfaces     func(dpy uintptr, ids *SurfaceID, n int32) Status
	vaExportSurfaceHandle func(dpy uintptr, id SurfaceID, memType, flags uint32, desc *drmPrimeSurfaceDescriptor) Status
	vaSyncSurface         func(dpy uintptr, id SurfaceID) Status

	vaCreateBuffer  func(dpy uintptr, ctx ContextID, typ int32, size, num uint32, data unsafe.Pointer, id *BufferID) Status
	vaDestroyBuffer func(dpy uintptr, id BufferID) Status

	vaBeginPicture  func(dpy uintptr, ctx ContextID, target SurfaceID) Status
	vaRenderPicture func(dpy uintptr, ctx ContextID, buffers *BufferID, n int32) Status
	vaEndPicture    func(dpy uintptr, ctx ContextID) Status
)

func load() error {
	loadOnce.Do(func() {
		libva, err := purego.Dlopen("libva.so.2", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			loadErr = errors.Wrap(err, "load libva")
			return
		}
		libvaDRM, err := purego.Dlopen("libva-drm.so.2", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			loadErr = errors.Wrap(err, "load libva-drm")
			return
		}

		purego.RegisterLibFunc(&vaGetDisplayDRM, libvaDRM, "vaGetDisplayDRM")
		purego.RegisterLibFunc(&vaInitialize, libva, "vaInitialize")
		purego.RegisterLibFunc(&vaTerminate, libva, "vaTerminate")
		purego.RegisterLibFunc(&vaErrorStr, libva, "vaErrorStr")
		purego.RegisterLibFunc(&vaCreateConfig, libva, "vaCreateConfig")
		purego.RegisterLibFunc(&vaDestroyConfig, libva, "vaDestroyConfig")
		purego.RegisterLibFunc(&vaCreateContext, libva, "vaCreateContext")
		purego.RegisterLibFunc(&vaDestroyContext, libva, "vaDestroyContext")
		purego.RegisterLibFunc(&vaCreateSurfaces, libva, "vaCreateSurfaces")
		purego.RegisterLibFunc(&vaDestroySurfaces, libva, "vaDestroySurfaces")
		purego.RegisterLibFunc(&vaExportSurfaceHandle, libva, "vaExportSurfaceHandle")
		purego.RegisterLibFunc(&vaSyncSurface, libva, "vaSyncSurface")
		purego.RegisterLibFunc(&vaCreateBuffer, libva, "vaCreateBuffer")
		purego.RegisterLibFunc(&vaDestroyBuffer, libva, "vaDestroyBuffer")
		purego.RegisterLibFunc(&vaBeginPicture, libva, "vaBeginPicture")
		purego.RegisterLibFunc(&vaRenderPicture, libva, "vaRenderPicture")
		purego.RegisterLibFunc(&vaEndPicture, libva, "vaEndPicture")
	})
	return loadErr
}

// goString converts a NUL-terminated C string pointer.
func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(ptr + uintptr(n))) != 0 {
		n++
		if n > 1024 {
			break
		}
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
}

// Display owns a DRM render node and the VA display initialised on it.
type Display struct {
	fd  int
	dpy uintptr
}

const defaultRenderNode = "/dev/dri/renderD128"

// OpenDisplay opens the render node (the default one if path is empty)
// and initialises the acceleration backend on it.
func OpenDisplay(path string) (*Display, error) {
	if err := load(); err != nil {
		return nil, err
	}
	if path == "" {
		path = defaultRenderNode
	}

	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	dpy := vaGetDisplayDRM(int32(fd))
	if dpy == 0 {
		unix.Close(fd)
		return nil, errors.New("va: no display for render node")
	}

	var major, minor int32
	if err := check(vaInitialize(dpy, &major, &minor)); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "initialize")
	}

	log.Info("Initialized va %d.%d on %s", major, minor, path)
	return &Display{fd: fd, dpy: dpy}, nil
}

func (d *Display) Close() {
	vaTerminate(d.dpy)
	unix.Close(d.fd)
}

// CreateConfig creates a decode config for HEVC Main profile.
func (d *Display) CreateConfig() (ConfigID, error) {
	var id ConfigID
	err := check(vaCreateConfig(d.dpy, profileHEVCMain, entrypointVLD, 0, 0, &id))
	return id, err
}

func (d *Display) DestroyConfig(id ConfigID) {
	if err := check(vaDestroyConfig(d.dpy, id)); err != nil {
		log.Warn("Failed to destroy config: %v", err)
	}
}

// CreateContext creates a progressive decode context at the given luma
// geometry.
func (d *Display) CreateContext(config ConfigID, width, height uint16) (ContextID, error) {
	var id ContextID
	err := check(vaCreateContext(d.dpy, config, int32(width), int32(height),
		int32(progressivePicture), 0, 0, &id))
	return id, err
}

func (d *Display) DestroyContext(id ContextID) {
	if err := check(vaDestroyContext(d.dpy, id)); err != nil {
		log.Warn("Failed to destroy context: %v", err)
	}
}

type genericValue struct {
	typ int32
	_   int32
	i   int64
}

type surfaceAttrib struct {
	typ   int32
	flags uint32
	value genericValue
}

// CreateSurfaces creates n NV12 4:2:0 decoder surfaces hinted for decode
// and dmabuf export.
func (d *Display) CreateSurfaces(width, height uint16, n int) ([]SurfaceID, error) {
	attribs := []surfaceAttrib{
		{
			typ:   surfaceAttribPixelFormat,
			flags: surfaceAttribSettable,
			value: genericValue{typ: genericValueTypeInteger, i: int64(fourccNV12)},
		},
		{
			typ:   surfaceAttribUsageHint,
			flags: surfaceAttribSettable,
			value: genericValue{typ: genericValueTypeInteger, i: int64(usageHintDecoder | usageHintExport)},
		},
	}

	ids := make([]SurfaceID, n)
	err := check(vaCreateSurfaces(d.dpy, rtFormatYUV420,
		uint32(width), uint32(height), &ids[0], uint32(n),
		&attribs[0], uint32(len(attribs))))
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (d *Display) DestroySurfaces(ids []SurfaceID) {
	if len(ids) == 0 {
		return
	}
	if err := check(vaDestroySurfaces(d.dpy, &ids[0], int32(len(ids)))); err != nil {
		log.Warn("Failed to destroy surfaces: %v", err)
	}
}

// SyncSurface blocks until all operations targeting the surface complete.
// The driver enforces GPU timeouts internally.
func (d *Display) SyncSurface(id SurfaceID) error {
	return check(vaSyncSurface(d.dpy, id))
}

// CreateBuffer uploads size bytes at data into a new buffer of the given
// type.
func (d *Display) CreateBuffer(ctx ContextID, typ int32, size int, data unsafe.Pointer) (BufferID, error) {
	var id BufferID
	err := check(vaCreateBuffer(d.dpy, ctx, typ, uint32(size), 1, data, &id))
	return id, err
}

func (d *Display) DestroyBuffer(id BufferID) {
	if err := check(vaDestroyBuffer(d.dpy, id)); err != nil {
		log.Warn("Failed to destroy buffer: %v", err)
	}
}

func (d *Display) BeginPicture(ctx ContextID, target SurfaceID) error {
	return check(vaBeginPicture(d.dpy, ctx, target))
}

func (d *Display) RenderPicture(ctx ContextID, buffers []BufferID) error {
	return check(vaRenderPicture(d.dpy, ctx, &buffers[0], int32(len(buffers))))
}

func (d *Display) EndPicture(ctx ContextID) error {
	return check(vaEndPicture(d.dpy, ctx))
}
