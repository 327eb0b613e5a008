package receiver

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/deskstream/receiver/internal/perf"
)

// vsyncBudget is one missed 60 Hz vsync in microseconds. The latency
// estimate pessimistically assumes one for capture and one for
// presentation.
const vsyncBudget = 16666

// stats accumulates one keyframe-to-keyframe window of transport
// measurements and renders the report when the window closes.
type stats struct {
	windowStart uint64

	pingSum   uint64
	pingCount uint64

	videoBytes      uint64
	videoLatencySum uint64
	videoLatencyCnt uint64

	audioBytes      uint64
	audioLatencySum uint64
	audioLatencyCnt uint64
}

func (s *stats) addPing(micros uint64) {
	s.pingSum += micros
	s.pingCount++
}

func (s *stats) addVideo(bytes int, latency uint64) {
	s.videoBytes += uint64(bytes)
	s.videoLatencySum += latency
	s.videoLatencyCnt++
}

func (s *stats) addAudio(bytes int, latency uint64) {
	s.audioBytes += uint64(bytes)
	s.audioLatencySum += latency
	s.audioLatencyCnt++
}

var (
	statsLabel = color.New(color.FgCyan)
	statsValue = color.New(color.Bold)
)

func statsLine(label, format string, a ...interface{}) {
	fmt.Fprintf(os.Stdout, "%s %s\n",
		statsLabel.Sprintf("%s:", label), statsValue.Sprintf(format, a...))
}

// milli renders a microsecond quantity as "X.XXX" milliseconds (or a
// kilobit rate as megabits, the arithmetic is the same).
func milli(v uint64) string {
	return fmt.Sprintf("%d.%03d", v/1000, v%1000)
}

// report prints the closing window and starts the next one. The first
// keyframe only anchors the clock.
func (s *stats) report(withAudio bool, audioEngineLatency uint64) {
	now := perf.MicrosNow()
	if s.windowStart == 0 {
		s.windowStart = now
		return
	}
	elapsed := now - s.windowStart

	var ping uint64
	if s.pingCount > 0 {
		ping = s.pingSum / s.pingCount
	}

	// Kbps = bytes * 1s * 8bit / elapsed / 1024.
	videoKbps := s.videoBytes * 1000000 * 8 / elapsed / 1024

	statsLine("Ping", "%s ms", milli(ping))
	statsLine("Video bitrate", "%s Mbps", milli(videoKbps))

	var audioKbps uint64
	if withAudio {
		audioKbps = s.audioBytes * 1000000 * 8 / elapsed / 1024
		statsLine("Audio bitrate", "%s Mbps", milli(audioKbps))
	}

	// Pessimistic end-to-end estimate: one vsync missed on capture, one
	// on presentation, and a 100 Mbit network.
	var videoLatency uint64
	if s.videoLatencyCnt > 0 {
		videoLatency = s.videoLatencySum/s.videoLatencyCnt + ping +
			2*vsyncBudget + videoKbps*1000000/100000000
	}
	statsLine("Video latency", "%s ms", milli(videoLatency))

	if withAudio {
		var audioLatency uint64
		if s.audioLatencyCnt > 0 {
			audioLatency = s.audioLatencySum/s.audioLatencyCnt + ping +
				audioKbps*1000000/100000000 + audioEngineLatency
		}
		statsLine("Audio latency", "%s ms", milli(audioLatency))
	}

	*s = stats{windowStart: now}
}
