package audio

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskstream/receiver/internal/ring"
)

func stereo48k(t *testing.T) Config {
	t.Helper()
	cfg, err := ParseConfig("48000:FL,FR")
	require.NoError(t, err)
	return cfg
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig("48000:FL,FR,FC,LFE,SL,SR")
	require.NoError(t, err)
	assert.Equal(t, 48000, cfg.Rate)
	assert.Equal(t, []Channel{
		ChannelFL, ChannelFR, ChannelFC, ChannelLFE, ChannelSL, ChannelSR,
	}, cfg.Channels)
	assert.Equal(t, 12, cfg.FrameSize())
}

func TestParseConfigPositions(t *testing.T) {
	// The positions are part of the wire contract with the engine.
	assert.EqualValues(t, 3, ChannelFL)
	assert.EqualValues(t, 4, ChannelFR)
	assert.EqualValues(t, 7, ChannelSL)
	assert.EqualValues(t, 25, ChannelLFE2)
	assert.EqualValues(t, 37, ChannelBRC)
}

func TestParseConfigRejects(t *testing.T) {
	for _, s := range []string{
		"",
		"48000",
		"22050:FL,FR",
		"48000:FL,XX",
		"48000:",
		"half:FL",
	} {
		_, err := ParseConfig(s)
		assert.Error(t, err, "config %q", s)
	}
}

func TestFillUnderflowPadsAndAccounts(t *testing.T) {
	cfg := stereo48k(t)
	e := &Engine{cfg: cfg, queue: ring.New(4800 * cfg.FrameSize())}

	payload := bytes.Repeat([]byte{0x11}, 200)
	e.queue.Write(payload)

	buf := bytes.Repeat([]byte{0xee}, 960)
	e.fill(buf)

	assert.Equal(t, payload, buf[:200])
	assert.Equal(t, make([]byte, 760), buf[200:])
	assert.Equal(t, 0, e.queue.Size())
	// 760 padded bytes = 190 frames at 48 kHz.
	assert.EqualValues(t, 760*1000000/4/48000, e.Latency())
}

func TestFillNoUnderflow(t *testing.T) {
	cfg := stereo48k(t)
	e := &Engine{cfg: cfg, queue: ring.New(4800 * cfg.FrameSize())}

	e.queue.Write(make([]byte, 960))
	e.fill(make([]byte, 960))
	assert.Zero(t, e.Latency())
}

// fakePCM paces the playback loop like a real device would and records
// everything played.
type fakePCM struct {
	mu     sync.Mutex
	played []byte
	fail   bool
	closed bool
}

func (f *fakePCM) WriteInterleaved(buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("device gone")
	}
	f.played = append(f.played, buf...)
	time.Sleep(time.Millisecond)
	return nil
}

func (f *fakePCM) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func TestEnginePlaysPushedSamples(t *testing.T) {
	cfg := stereo48k(t)
	pcm := &fakePCM{}
	e := newEngine(cfg, 4800, pcm)

	payload := make([]byte, 960)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, e.Push(payload))

	// Wait for at least one period to drain.
	deadline := time.Now().Add(time.Second)
	for {
		pcm.mu.Lock()
		n := len(pcm.played)
		pcm.mu.Unlock()
		if n >= periodFrames*cfg.FrameSize() || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	e.Close()

	assert.True(t, pcm.closed)
	// The pushed samples appear in order somewhere in the played stream
	// (zero padding may precede them).
	assert.True(t, bytes.Contains(pcm.played, payload[:600]))
}

func TestEnginePushAfterDeviceFailure(t *testing.T) {
	cfg := stereo48k(t)
	pcm := &fakePCM{fail: true}
	e := newEngine(cfg, 4800, pcm)

	// The playback thread stops on the first write failure.
	deadline := time.Now().Add(time.Second)
	for e.running.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	err := e.Push(make([]byte, 4))
	assert.Error(t, err)
	<-e.done
	assert.True(t, pcm.closed)
}
