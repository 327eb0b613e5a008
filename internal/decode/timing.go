package decode

import (
	"github.com/deskstream/receiver/internal/perf"
)

func nowMicros() uint64 {
	return perf.MicrosNow()
}

// timingStats keeps a rolling min/avg/max of per-record decode time and
// logs a summary every ten seconds. Debug-level plumbing only.
type timingStats struct {
	started   uint64
	min       uint64
	max       uint64
	sum       uint64
	frames    uint64
	bitstream uint64
}

const second = 1000000

func (t *timingStats) record(received, decoded uint64, size int) {
	if t.started == 0 {
		t.started = received
		t.min = ^uint64(0)
	}

	elapsed := decoded - received
	if elapsed < t.min {
		t.min = elapsed
	}
	if elapsed > t.max {
		t.max = elapsed
	}
	t.sum += elapsed
	t.frames++
	t.bitstream += uint64(size)

	period := decoded - t.started
	if period < 10*second {
		return
	}
	log.Debug("Decode min/avg/max: %d/%d/%d us, %d fps, %d Kbps",
		t.min, t.sum/t.frames, t.max,
		t.frames*second/period,
		t.bitstream*second*8/period/1024)
	*t = timingStats{}
}
