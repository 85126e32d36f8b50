//go:build linux

package render

import "golang.org/x/sys/unix"

// monotonicNanos reads CLOCK_MONOTONIC_RAW, which NTP slewing never touches.
func monotonicNanos() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return fallbackNanos()
	}
	return ts.Nano()
}
