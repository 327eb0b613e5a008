// Package audio plays back the uncompressed stream: the demuxer pushes
// interleaved S16LE samples into a lock-free ring, and the engine's
// realtime thread drains it into the playback device, zero-padding on
// underflow.
package audio

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/deskstream/receiver/internal/logging"
	"github.com/deskstream/receiver/internal/ring"
)

var log = logging.DefaultLogger.WithTag("audio")

// periodFrames is the fixed chunk the realtime thread requests from the
// ring per device write.
const periodFrames = 480

// pcmWriter is the playback device as the realtime thread sees it.
type pcmWriter interface {
	WriteInterleaved(buf []byte) error
	Close()
}

// Engine owns the ring's consumer side and the playback thread. The
// demuxer is the only producer.
type Engine struct {
	cfg     Config
	queue   *ring.Ring
	pcm     pcmWriter
	running atomic.Bool
	latency atomic.Uint64
	done    chan struct{}
}

// NewEngine opens the default playback device for the announced
// configuration and starts the realtime thread. ringFrames bounds the
// jitter buffer between demuxer and device.
func NewEngine(cfg Config, ringFrames int) (*Engine, error) {
	pcm, err := openALSA("default", cfg)
	if err != nil {
		return nil, err
	}
	return newEngine(cfg, ringFrames, pcm), nil
}

func newEngine(cfg Config, ringFrames int, pcm pcmWriter) *Engine {
	e := &Engine{
		cfg:   cfg,
		queue: ring.New(ringFrames * cfg.FrameSize()),
		pcm:   pcm,
		done:  make(chan struct{}),
	}
	e.running.Store(true)
	go e.playback()
	return e
}

// playback is the realtime consumer: it never allocates and never blocks
// on the producer.
func (e *Engine) playback() {
	defer close(e.done)
	defer e.pcm.Close()

	buf := make([]byte, periodFrames*e.cfg.FrameSize())
	for e.running.Load() {
		e.fill(buf)
		if err := e.pcm.WriteInterleaved(buf); err != nil {
			log.Error("Playback failed: %v", err)
			e.running.Store(false)
			return
		}
	}
}

// fill drains the ring into buf, zero-padding the tail on underflow and
// accounting the shortfall as playback latency.
func (e *Engine) fill(buf []byte) {
	n := e.queue.Read(buf)
	if n == len(buf) {
		return
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	padded := uint64(len(buf) - n)
	e.latency.Add(padded * 1000000 /
		uint64(e.cfg.FrameSize()) / uint64(e.cfg.Rate))
}

// Push queues one record of interleaved samples. Overflow is reported to
// the caller only through the log; the stream stays healthy.
func (e *Engine) Push(data []byte) error {
	if !e.running.Load() {
		return errors.New("audio: engine stopped early")
	}
	if n := e.queue.Write(data); n < len(data) {
		log.Warn("Queue overflow, dropped %d bytes", len(data)-n)
	}
	return nil
}

// Latency returns the cumulative playback latency in microseconds accrued
// through underflow padding since the stream began.
func (e *Engine) Latency() uint64 {
	return e.latency.Load()
}

// Close stops the realtime thread and the device.
func (e *Engine) Close() {
	e.running.Store(false)
	<-e.done
}
