package cloud

// Transfer timing instrumentation for diagnostics.
//
// Enable timing output by setting MEDIADESK_TIMING=1.
// Output format: [TIMING] phase_name: duration (optional_details)
//
// Example output:
//   [TIMING] upload photo.jpg: 1.2s (total 3.4 MB at 2.8 MB/s)
//   [TIMING] download 65f1c0: 850ms

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/distrohub/mediadesk/internal/util/format"
)

// TimingEnabled returns true if MEDIADESK_TIMING=1 is set.
func TimingEnabled() bool {
	return os.Getenv("MEDIADESK_TIMING") == "1"
}

// TimingLog writes a timing message to w (stderr when nil) if timing is enabled.
func TimingLog(w io.Writer, format string, args ...interface{}) {
	if !TimingEnabled() {
		return
	}
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "[TIMING] %s\n", fmt.Sprintf(format, args...))
}

// Timer tracks elapsed time for a named phase. Stop is idempotent: only
// the first call logs.
type Timer struct {
	name    string
	start   time.Time
	w       io.Writer
	stopped int32
}

// StartTimer creates a new timer writing to w (stderr when nil).
func StartTimer(w io.Writer, name string) *Timer {
	if w == nil {
		w = os.Stderr
	}
	return &Timer{name: name, start: time.Now(), w: w}
}

// Stop logs the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	if atomic.CompareAndSwapInt32(&t.stopped, 0, 1) && TimingEnabled() {
		fmt.Fprintf(t.w, "[TIMING] %s: %v\n", t.name, elapsed)
	}
	return elapsed
}

// Elapsed returns the current elapsed time without stopping the timer.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// StopWithThroughput logs elapsed time with the transfer rate of bytes.
func (t *Timer) StopWithThroughput(bytes int64) time.Duration {
	elapsed := time.Since(t.start)
	if atomic.CompareAndSwapInt32(&t.stopped, 0, 1) && TimingEnabled() {
		rate := 0.0
		if elapsed > 0 {
			rate = float64(bytes) / elapsed.Seconds()
		}
		fmt.Fprintf(t.w, "[TIMING] %s: %v (total %s at %s)\n",
			t.name, elapsed, format.FormatFileSize(bytes), format.FormatSpeed(rate))
	}
	return elapsed
}
