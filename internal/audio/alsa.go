package audio

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

// ALSA constants, alsa/pcm.h.
const (
	sndPCMStreamPlayback      int32 = 0
	sndPCMFormatS16LE         int32 = 2
	sndPCMAccessRWInterleaved int32 = 3

	// One period of soft latency requested from the device.
	softwareLatencyMicros uint32 = 10000
)

var (
	alsaOnce sync.Once
	alsaErr  error

	sndPCMOpen      func(pcm *uintptr, name string, stream int32, mode int32) int32
	sndPCMSetParams func(pcm uintptr, format, access int32, channels, rate uint32, softResample int32, latency uint32) int32
	sndPCMWriteI    func(pcm uintptr, buffer unsafe.Pointer, frames uint64) int64
	sndPCMClose     func(pcm uintptr) int32
	sndStrerror     func(errnum int32) uintptr
)

func loadALSA() error {
	alsaOnce.Do(func() {
		lib, err := purego.Dlopen("libasound.so.2", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			alsaErr = errors.Wrap(err, "load libasound")
			return
		}
		purego.RegisterLibFunc(&sndPCMOpen, lib, "snd_pcm_open")
		purego.RegisterLibFunc(&sndPCMSetParams, lib, "snd_pcm_set_params")
		purego.RegisterLibFunc(&sndPCMWriteI, lib, "snd_pcm_writei")
		purego.RegisterLibFunc(&sndPCMClose, lib, "snd_pcm_close")
		purego.RegisterLibFunc(&sndStrerror, lib, "snd_strerror")
	})
	return alsaErr
}

func alsaError(op string, errnum int64) error {
	msg := cString(sndStrerror(int32(errnum)))
	if msg == "" {
		return errors.Errorf("alsa: %s (%d)", op, errnum)
	}
	return errors.Errorf("alsa: %s (%s)", op, msg)
}

func cString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(ptr + uintptr(n))) != 0 {
		n++
		if n > 256 {
			break
		}
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
}

// alsaPCM is the playback device half of the engine, behind the pcmWriter
// seam so the consumer loop is testable without hardware.
type alsaPCM struct {
	pcm       uintptr
	frameSize int
}

func openALSA(device string, cfg Config) (*alsaPCM, error) {
	if err := loadALSA(); err != nil {
		return nil, err
	}

	var pcm uintptr
	if rc := sndPCMOpen(&pcm, device, sndPCMStreamPlayback, 0); rc < 0 {
		return nil, alsaError("open", int64(rc))
	}

	rc := sndPCMSetParams(pcm, sndPCMFormatS16LE, sndPCMAccessRWInterleaved,
		uint32(len(cfg.Channels)), uint32(cfg.Rate), 1, softwareLatencyMicros)
	if rc < 0 {
		sndPCMClose(pcm)
		return nil, alsaError("set params", int64(rc))
	}

	return &alsaPCM{pcm: pcm, frameSize: cfg.FrameSize()}, nil
}

// WriteInterleaved plays one interleaved buffer, retrying partial writes.
func (a *alsaPCM) WriteInterleaved(buf []byte) error {
	frames := len(buf) / a.frameSize
	for offset := 0; offset < frames; {
		n := sndPCMWriteI(a.pcm,
			unsafe.Pointer(&buf[offset*a.frameSize]), uint64(frames-offset))
		if n < 0 {
			return alsaError("writei", n)
		}
		offset += int(n)
	}
	return nil
}

func (a *alsaPCM) Close() {
	sndPCMClose(a.pcm)
}
