// Package perf provides the monotonic microsecond clock shared by the
// heartbeat, the statistics windows and the decode timing log. All
// latency arithmetic subtracts readings of this one clock.
package perf

import "time"

var epoch = time.Now()

// MicrosNow returns monotonic microseconds since process start.
func MicrosNow() uint64 {
	return uint64(time.Since(epoch) / time.Microsecond)
}
