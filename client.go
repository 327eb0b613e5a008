package receiver

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/deskstream/receiver/internal/audio"
	"github.com/deskstream/receiver/internal/perf"
	"github.com/deskstream/receiver/internal/proto"
)

// Heartbeat period: three pings per second.
const pingPeriodNanos = 1000 * 1000 * 1000 / 3

// errPeerClosed marks the server closing the connection, which ends the
// session cleanly.
var errPeerClosed = errors.New("peer closed connection")

// Run drives the event loop until shutdown: it polls the transport, the
// presenter's event channel and the heartbeat timer, servicing readiness
// in that order.
func (c *Client) Run() error {
	timerFd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC)
	if err != nil {
		return errors.Wrap(err, "create timer")
	}
	defer unix.Close(timerFd)

	spec := unix.ItimerSpec{
		Interval: unix.Timespec{Nsec: pingPeriodNanos},
		Value:    unix.Timespec{Nsec: pingPeriodNanos},
	}
	if err := unix.TimerfdSettime(timerFd, 0, &spec, nil); err != nil {
		return errors.Wrap(err, "arm timer")
	}

	fds := []unix.PollFd{
		{Fd: int32(c.sock), Events: unix.POLLIN},
		{Fd: int32(c.win.EventsFd()), Events: unix.POLLIN},
		{Fd: int32(timerFd), Events: unix.POLLIN},
	}

	for c.shutdown.Load() == shutdownNone {
		for i := range fds {
			fds[i].Revents = 0
		}
		n, err := unix.Poll(fds, -1)
		if err == unix.EINTR || n == 0 {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "poll")
		}

		if fds[0].Revents != 0 {
			if err := c.demux(); err != nil {
				if errors.Is(err, errPeerClosed) {
					log.Info("Server closed connection")
					return nil
				}
				return errors.Wrap(err, "demux stream")
			}
		}
		if fds[1].Revents != 0 {
			if err := c.win.DispatchEvents(); err != nil {
				return errors.Wrap(err, "process window events")
			}
		}
		if fds[2].Revents != 0 {
			if err := c.ping(timerFd); err != nil {
				return errors.Wrap(err, "send heartbeat")
			}
		}
	}

	if c.shutdown.Load() == shutdownFatal {
		return errors.New("input forwarding failed")
	}
	return nil
}

// demux appends transport bytes to the receive buffer and dispatches
// every complete record in order.
func (c *Client) demux() error {
	n, err := c.buf.AppendFrom(c.sock)
	if err != nil {
		return errors.Wrap(err, "read transport")
	}
	if n == 0 {
		return errPeerClosed
	}

	for c.buf.Size() >= proto.HeaderSize {
		header := proto.ParseHeader(c.buf.Bytes())
		if c.buf.Size() < proto.HeaderSize+int(header.Size) {
			return nil
		}
		payload := c.buf.Bytes()[proto.HeaderSize : proto.HeaderSize+header.Size]

		switch header.Type {
		case proto.TypeMisc:
			c.handlePing(payload)
		case proto.TypeVideo:
			if err := c.handleVideo(header, payload); err != nil {
				return err
			}
		case proto.TypeAudio:
			if err := c.handleAudio(header, payload); err != nil {
				return err
			}
		}

		c.buf.Discard(proto.HeaderSize + int(header.Size))
	}
	return nil
}

// handlePing accumulates one heartbeat echo: the payload is the original
// outbound timestamp.
func (c *Client) handlePing(payload []byte) {
	if len(payload) != 8 {
		log.Warn("Malformed heartbeat echo of %d bytes", len(payload))
		return
	}
	if c.stats != nil {
		c.stats.addPing(perf.MicrosNow() - binary.LittleEndian.Uint64(payload))
	}
}

func (c *Client) handleVideo(header proto.Header, payload []byte) error {
	if err := c.session.Decode(payload); err != nil {
		return errors.Wrap(err, "decode video")
	}

	if c.stats == nil {
		return nil
	}
	c.stats.addVideo(len(payload), header.Latency)
	if header.Keyframe() {
		var audioLatency uint64
		if c.engine != nil {
			audioLatency = c.engine.Latency()
		}
		c.stats.report(c.engine != nil, audioLatency)
	}
	return nil
}

func (c *Client) handleAudio(header proto.Header, payload []byte) error {
	if header.Keyframe() {
		// The configuration record. Dynamic reconfiguration is not
		// supported: later keyframes are ignored.
		if c.engine != nil || c.cfg.AudioRingFrames == 0 {
			return nil
		}
		cfg, err := audio.ParseConfig(string(payload))
		if err != nil {
			return errors.Wrap(err, "parse audio config")
		}
		engine, err := audio.NewEngine(cfg, c.cfg.AudioRingFrames)
		if err != nil {
			return errors.Wrap(err, "create audio engine")
		}
		log.Info("Audio configured: %d Hz, %d channels", cfg.Rate, len(cfg.Channels))
		c.engine = engine
		return nil
	}

	if c.engine == nil {
		return nil
	}
	if err := c.engine.Push(payload); err != nil {
		return errors.Wrap(err, "queue audio")
	}
	if c.stats != nil {
		c.stats.addAudio(len(payload), header.Latency)
	}
	return nil
}

// ping drains the timer expiration count and emits one heartbeat record
// carrying the current monotonic timestamp.
func (c *Client) ping(timerFd int) error {
	var expirations [8]byte
	if _, err := unix.Read(timerFd, expirations[:]); err != nil {
		return errors.Wrap(err, "read timer")
	}

	record := proto.AppendPing(nil, perf.MicrosNow())
	n, err := unix.Write(c.sock, record)
	if err != nil {
		return errors.Wrap(err, "write transport")
	}
	if n != len(record) {
		return errors.New("short heartbeat write")
	}
	return nil
}
