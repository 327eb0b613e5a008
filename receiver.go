// Package receiver implements the client half of a low-latency
// desktop-streaming pair: it demultiplexes the server's framed byte
// stream into video, audio and control records, drives the hardware
// decoder into dmabuf-exported surfaces for the presenter, plays audio
// through a realtime engine, and forwards local input back to the server
// as virtual-HID traffic.
package receiver

import (
	"net"
	"strconv"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/deskstream/receiver/internal/audio"
	"github.com/deskstream/receiver/internal/buffer"
	"github.com/deskstream/receiver/internal/decode"
	"github.com/deskstream/receiver/internal/input"
	"github.com/deskstream/receiver/internal/logging"
	"github.com/deskstream/receiver/internal/va"
	"github.com/deskstream/receiver/internal/window"
)

var log = logging.DefaultLogger.WithTag("receiver")

// Config selects the optional subsystems of a Client.
type Config struct {
	// Addr is the server's "<ip>:<port>".
	Addr string

	// NoInput disables the virtual-HID input forwarder.
	NoInput bool

	// Stats enables the per-keyframe statistics report.
	Stats bool

	// AudioRingFrames sizes the playback jitter buffer; zero disables
	// audio entirely.
	AudioRingFrames int
}

// AttachWindow builds the presenter for a client. The handlers must be
// invoked from the thread that calls DispatchEvents.
type AttachWindow func(handlers window.EventHandlers) (window.Window, error)

// Shutdown causes, in escalation order.
const (
	shutdownNone uint32 = iota
	shutdownClean
	shutdownFatal
)

// Client owns one streaming session: the transport socket, the decoder,
// the presenter, the audio engine and the input forwarder.
type Client struct {
	cfg Config

	sock      int
	forwarder *input.Forwarder
	win       window.Window
	display   *va.Display
	session   *decode.Session
	engine    *audio.Engine
	buf       *buffer.Buffer
	stats     *stats

	shutdown atomic.Uint32
}

// dial connects to the server with TCP_NODELAY set, returning the raw
// descriptor the event loop polls.
func dial(addr string) (int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return -1, errors.Wrap(err, "parse address")
	}
	ip := net.ParseIP(host).To4()
	if ip == nil {
		return -1, errors.Errorf("not an IPv4 address: %s", host)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 0xffff {
		return -1, errors.Errorf("not a port number: %s", portStr)
	}

	sock, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, errors.Wrap(err, "create socket")
	}
	if err := unix.SetsockoptInt(sock, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		unix.Close(sock)
		return -1, errors.Wrap(err, "set TCP_NODELAY")
	}

	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip)
	if err := unix.Connect(sock, sa); err != nil {
		unix.Close(sock)
		return -1, errors.Wrap(err, "connect")
	}
	return sock, nil
}

// New connects to the server and assembles the client. Resources are
// released in reverse order on any failure.
func New(cfg Config, attach AttachWindow) (*Client, error) {
	c := &Client{cfg: cfg, buf: buffer.New()}

	sock, err := dial(cfg.Addr)
	if err != nil {
		return nil, err
	}
	c.sock = sock

	var handlers window.EventHandlers
	if !cfg.NoInput {
		forwarder, err := input.New(sock)
		if err != nil {
			unix.Close(sock)
			return nil, errors.Wrap(err, "create input forwarder")
		}
		c.forwarder = forwarder
		handlers = c.eventHandlers()
	} else {
		handlers = window.EventHandlers{OnClose: c.Shutdown}
	}

	win, err := attach(handlers)
	if err != nil {
		c.closeForwarder()
		unix.Close(sock)
		return nil, errors.Wrap(err, "attach window")
	}
	c.win = win

	display, err := va.OpenDisplay("")
	if err != nil {
		win.Close()
		c.closeForwarder()
		unix.Close(sock)
		return nil, errors.Wrap(err, "open display")
	}
	c.display = display
	c.session = decode.NewSession(display, win)

	if cfg.Stats {
		c.stats = &stats{}
	}
	return c, nil
}

// eventHandlers wires the presenter's input events into the forwarder.
// Any forwarding failure flags the loop fatal; events keep draining so
// the compositor connection stays healthy until teardown.
func (c *Client) eventHandlers() window.EventHandlers {
	check := func(what string, err error) {
		if err != nil {
			log.Error("Failed to forward %s: %v", what, err)
			c.shutdown.CompareAndSwap(shutdownNone, shutdownFatal)
		}
	}
	return window.EventHandlers{
		OnClose: c.Shutdown,
		OnFocus: func(focused bool) {
			if !focused {
				check("handsoff", c.forwarder.Handsoff())
			}
		},
		OnKey: func(key uint, pressed bool) {
			check("key", c.forwarder.KeyPress(key, pressed))
		},
		OnMove: func(dx, dy int) {
			check("motion", c.forwarder.MouseMove(dx, dy))
		},
		OnButton: func(button uint, pressed bool) {
			check("button", c.forwarder.MouseButton(button, pressed))
		},
		OnWheel: func(delta int) {
			check("wheel", c.forwarder.MouseWheel(delta))
		},
	}
}

// Shutdown requests a clean loop exit. Safe to call from a signal
// watcher; the loop re-reads the flag after its next poll wakeup, at the
// latest on the next heartbeat timer tick.
func (c *Client) Shutdown() {
	c.shutdown.CompareAndSwap(shutdownNone, shutdownClean)
}

func (c *Client) closeForwarder() {
	if c.forwarder != nil {
		c.forwarder.Close()
	}
}

// Close releases everything in reverse acquisition order.
func (c *Client) Close() {
	if c.engine != nil {
		c.engine.Close()
	}
	c.session.Close()
	c.display.Close()
	c.win.Close()
	c.closeForwarder()
	unix.Close(c.sock)
}
