//go:build !unix

package hal

import "time"

func monotonicMicros() uint64 {
	return uint64(time.Since(processStart) / time.Microsecond)
}

func realtimeNanos() int64 {
	return time.Now().UnixNano()
}
