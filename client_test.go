package receiver

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/deskstream/receiver/internal/buffer"
	"github.com/deskstream/receiver/internal/decode"
	"github.com/deskstream/receiver/internal/perf"
	"github.com/deskstream/receiver/internal/proto"
	"github.com/deskstream/receiver/internal/window"
)

// newTestClient returns a client reading from one end of a socket pair
// and the peer descriptor the test writes records into.
func newTestClient(t *testing.T) (*Client, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})

	win, err := window.NewHeadless()
	require.NoError(t, err)
	t.Cleanup(win.Close)

	return &Client{
		sock:    fds[0],
		buf:     buffer.New(),
		win:     win,
		session: decode.NewSession(nil, win),
		stats:   &stats{},
	}, fds[1]
}

// record frames one protocol record.
func record(typ, flags uint8, latency uint64, payload []byte) []byte {
	b := []byte{typ, flags}
	b = binary.LittleEndian.AppendUint64(b, latency)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(payload)))
	return append(b, payload...)
}

func send(t *testing.T, fd int, data []byte) {
	t.Helper()
	n, err := unix.Write(fd, data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
}

func TestDemuxHeartbeatEcho(t *testing.T) {
	c, peer := newTestClient(t)

	// The server echoes our timestamp; the demuxer accounts the delta.
	echo := make([]byte, 8)
	binary.LittleEndian.PutUint64(echo, perf.MicrosNow())
	send(t, peer, record(proto.TypeMisc, 0, 0, echo))

	require.NoError(t, c.demux())
	assert.EqualValues(t, 1, c.stats.pingCount)
	// The echo round-tripped within this test, so the observed ping is
	// tiny but non-negative.
	assert.Less(t, c.stats.pingSum, uint64(time.Second/time.Microsecond))
}

func TestDemuxRollingPingAverage(t *testing.T) {
	c, peer := newTestClient(t)

	for i := 0; i < 5; i++ {
		echo := make([]byte, 8)
		binary.LittleEndian.PutUint64(echo, perf.MicrosNow())
		send(t, peer, record(proto.TypeMisc, 0, 0, echo))
	}
	require.NoError(t, c.demux())

	require.EqualValues(t, 5, c.stats.pingCount)
	// The rolling average is the arithmetic mean of the in-process
	// round trips, each far below a second.
	mean := c.stats.pingSum / c.stats.pingCount
	assert.Less(t, mean, uint64(time.Second/time.Microsecond))
}

func TestDemuxPartialRecord(t *testing.T) {
	c, peer := newTestClient(t)

	echo := make([]byte, 8)
	full := record(proto.TypeMisc, 0, 0, echo)

	// Header and part of the payload: nothing dispatched, bytes stay
	// buffered.
	send(t, peer, full[:proto.HeaderSize+3])
	require.NoError(t, c.demux())
	assert.Zero(t, c.stats.pingCount)
	assert.Equal(t, proto.HeaderSize+3, c.buf.Size())

	// Remainder completes the record.
	send(t, peer, full[proto.HeaderSize+3:])
	require.NoError(t, c.demux())
	assert.EqualValues(t, 1, c.stats.pingCount)
	assert.Zero(t, c.buf.Size())
}

func TestDemuxMultipleRecords(t *testing.T) {
	c, peer := newTestClient(t)

	echo := make([]byte, 8)
	var batch []byte
	batch = append(batch, record(proto.TypeMisc, 0, 0, echo)...)
	batch = append(batch, record(proto.TypeMisc, 0, 0, echo)...)
	batch = append(batch, record(proto.TypeAudio, proto.FlagKeyframe, 0,
		[]byte("48000:FL,FR"))...)
	send(t, peer, batch)

	require.NoError(t, c.demux())
	assert.EqualValues(t, 2, c.stats.pingCount)
	// Audio is disabled (ring size 0), so the config record is ignored.
	assert.Nil(t, c.engine)
	assert.Zero(t, c.buf.Size())
}

func TestDemuxPeerClosed(t *testing.T) {
	c, peer := newTestClient(t)
	unix.Close(peer)

	err := c.demux()
	assert.ErrorIs(t, err, errPeerClosed)
}

func TestDemuxGarbageVideoFails(t *testing.T) {
	c, peer := newTestClient(t)

	send(t, peer, record(proto.TypeVideo, 0, 0, []byte{0xba, 0xad, 0xf0, 0x0d}))
	err := c.demux()
	assert.ErrorIs(t, err, decode.ErrUnsupportedStream)
}

func TestRunShutdown(t *testing.T) {
	c, _ := newTestClient(t)

	done := make(chan error, 1)
	go func() { done <- c.Run() }()

	time.Sleep(50 * time.Millisecond)
	c.Shutdown()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after shutdown")
	}
}

func TestRunEmitsHeartbeat(t *testing.T) {
	c, peer := newTestClient(t)

	done := make(chan error, 1)
	go func() { done <- c.Run() }()
	defer func() {
		c.Shutdown()
		<-done
	}()

	require.NoError(t, unix.SetNonblock(peer, true))
	deadline := time.Now().Add(2 * time.Second)
	buf := make([]byte, proto.PingSize)
	var got []byte
	for time.Now().Before(deadline) && len(got) < proto.PingSize {
		n, err := unix.Read(peer, buf)
		if n > 0 {
			got = append(got, buf[:n]...)
		}
		if err != nil && err != unix.EAGAIN {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.GreaterOrEqual(t, len(got), proto.PingSize)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, got[:4])
	sent := binary.LittleEndian.Uint64(got[4:12])
	assert.LessOrEqual(t, sent, perf.MicrosNow())
}

func TestRunPeerCloseExitsCleanly(t *testing.T) {
	c, peer := newTestClient(t)

	done := make(chan error, 1)
	go func() { done <- c.Run() }()

	time.Sleep(20 * time.Millisecond)
	unix.Close(peer)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on peer close")
	}
}
