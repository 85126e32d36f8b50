//go:build !linux

package render

func monotonicNanos() int64 {
	return fallbackNanos()
}
