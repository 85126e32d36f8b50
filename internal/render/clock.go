package render

import "time"

var processStart = time.Now()

// fallbackNanos derives a monotonic reading from the runtime clock.
func fallbackNanos() int64 {
	return int64(time.Since(processStart))
}
