package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/distrohub/mediadesk/internal/util/format"
)

// BatchUI renders one bar per file of a multi-file upload or download.
// Without a terminal it prints one line per start and completion instead.
type BatchUI struct {
	progress   *mpb.Progress
	out        io.Writer
	isTerminal bool
	verb       string
	arrow      string
	totalFiles int
	started    int32
	completed  int32
	failed     int32
}

// Bar is a single file's progress bar.
type Bar struct {
	bar        *mpb.Bar
	ui         *BatchUI
	index      int
	name       string
	target     string
	size       int64
	retries    int32
	startTime  time.Time
	mu         sync.Mutex
	lastUpdate time.Time
	lastBytes  int64
}

// NewUploadUI creates the UI for `mediadesk upload`.
func NewUploadUI(totalFiles int) *BatchUI {
	return newTerminalBatchUI("Uploading", "→", totalFiles)
}

// NewDownloadUI creates the UI for multi-item `mediadesk media download`.
func NewDownloadUI(totalFiles int) *BatchUI {
	return newTerminalBatchUI("Downloading", "←", totalFiles)
}

func newTerminalBatchUI(verb, arrow string, totalFiles int) *BatchUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	if isTerminal {
		enableANSIOnWindows(os.Stderr)
	}
	return newBatchUI(verb, arrow, totalFiles, os.Stdout, isTerminal)
}

func newBatchUI(verb, arrow string, totalFiles int, out io.Writer, isTerminal bool) *BatchUI {
	var p *mpb.Progress
	if isTerminal {
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(100),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}
	return &BatchUI{
		progress:   p,
		out:        out,
		isTerminal: isTerminal,
		verb:       verb,
		arrow:      arrow,
		totalFiles: totalFiles,
	}
}

// AddBar creates a bar for name moving to/from target (a folder path for
// uploads, a local path for downloads).
func (u *BatchUI) AddBar(name, target string, size int64) *Bar {
	index := int(atomic.AddInt32(&u.started, 1))
	b := &Bar{
		ui:         u,
		index:      index,
		name:       name,
		target:     target,
		size:       size,
		startTime:  time.Now(),
		lastUpdate: time.Now(),
	}

	label := truncatePath(name, 2)
	if u.isTerminal {
		b.bar = u.progress.New(size,
			mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
			mpb.PrependDecorators(
				decor.Any(func(s decor.Statistics) string {
					base := fmt.Sprintf("[%d/%d] %s (%s) %s %s",
						b.index, u.totalFiles, label, format.FormatFileSize(size), u.arrow, target)
					if r := atomic.LoadInt32(&b.retries); r > 0 {
						return fmt.Sprintf("%s (retry %d)", base, r)
					}
					return base
				}, decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 30, decor.WCSyncSpace),
				decor.Name("  "),
				decor.Name("ETA ", decor.WCSyncWidth),
				decor.EwmaETA(decor.ET_STYLE_GO, 30),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(u.out, "%s [%d/%d]: %s (%s) %s %s\n",
			u.verb, index, u.totalFiles, label, format.FormatFileSize(size), u.arrow, target)
	}
	return b
}

// SetBytes moves the bar to n bytes. Updates are throttled; EWMA speed
// needs the elapsed time of every increment.
func (b *Bar) SetBytes(n int64) {
	if b.bar == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastUpdate)
	if elapsed < 300*time.Millisecond && n < b.size {
		return
	}
	b.bar.EwmaIncrBy(int(n-b.lastBytes), elapsed)
	b.lastBytes = n
	b.lastUpdate = now
}

// SetPercent moves the bar to an integer percentage of its size.
func (b *Bar) SetPercent(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	b.SetBytes(b.size * int64(pct) / 100)
}

// SetRetry updates the retry counter shown next to the label.
func (b *Bar) SetRetry(count int) {
	atomic.StoreInt32(&b.retries, int32(count))
	if b.bar != nil && count > 0 {
		b.mu.Lock()
		b.bar.SetRefill(b.lastBytes)
		b.mu.Unlock()
	}
}

// Complete finishes the bar and prints a summary line; detail is the
// hosted URL for uploads or the media id for downloads.
func (b *Bar) Complete(detail string, err error) {
	elapsed := time.Since(b.startTime)
	var msg string
	if err == nil {
		if b.bar != nil {
			b.bar.SetCurrent(b.size)
			b.bar.SetTotal(b.size, true)
		}
		speed := 0.0
		if elapsed > 0 {
			speed = float64(b.size) / elapsed.Seconds()
		}
		msg = fmt.Sprintf("✓ %s %s %s (%s, %s, %s, %s)\n",
			truncatePath(b.name, 2), b.ui.arrow, b.target, detail,
			format.FormatFileSize(b.size), elapsed.Round(time.Millisecond), format.FormatSpeed(speed))
	} else {
		if b.bar != nil {
			b.bar.Abort(false)
		}
		atomic.AddInt32(&b.ui.failed, 1)
		msg = fmt.Sprintf("✗ %s %s %s: %v\n", truncatePath(b.name, 2), b.ui.arrow, b.target, err)
	}

	// Through mpb's writer so the bars are not redrawn over the message.
	io.WriteString(b.ui.Writer(), msg)
	atomic.AddInt32(&b.ui.completed, 1)
}

// Wait blocks until all bars complete.
func (u *BatchUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Writer returns an io.Writer that prints above the bars.
func (u *BatchUI) Writer() io.Writer {
	if u.isTerminal && u.progress != nil {
		return u.progress
	}
	return u.out
}

// Completed returns the number of finished files (success or failure).
func (u *BatchUI) Completed() int {
	return int(atomic.LoadInt32(&u.completed))
}

// Failed returns the number of files that finished with an error.
func (u *BatchUI) Failed() int {
	return int(atomic.LoadInt32(&u.failed))
}

// IsTerminal reports whether bars are rendered.
func (u *BatchUI) IsTerminal() bool {
	return u.isTerminal
}

// truncatePath keeps the last maxComponents components of path.
// Example: truncatePath("/a/b/c/d/file.txt", 3) → "…/c/d/file.txt"
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	return "…/" + strings.Join(parts[len(parts)-maxComponents:], "/")
}

// enableANSIOnWindows enables Virtual Terminal processing for mpb's escape
// sequences. No-op elsewhere.
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}
