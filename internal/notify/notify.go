// Package notify prints the transient notifications published on the
// event bus, the CLI's equivalent of a toast. Saved uploads and failures
// can also be raised as desktop notifications through
// github.com/gen2brain/beeep.
package notify

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/distrohub/mediadesk/internal/events"
	"github.com/distrohub/mediadesk/internal/logging"
)

// UploadSavedTitle is the notification title published once an uploaded
// file has a media record. The desktop sink keys on it.
const UploadSavedTitle = "Upload saved"

// desktopTitle prefixes desktop notification titles.
const desktopTitle = "mediadesk"

// Config holds notification configuration.
type Config struct {
	// Enabled determines if notifications are printed.
	Enabled bool

	// ShowInfo prints info-level notices (upload complete, folder
	// created).
	ShowInfo bool

	// ShowErrors prints warnings and failures. Commands that already
	// return the error from RunE turn this off.
	ShowErrors bool

	// Desktop also raises saved uploads and errors as system
	// notifications. Independent of ShowInfo and ShowErrors.
	Desktop bool

	// Logger receives desktop delivery failures. Nil discards them.
	Logger *logging.Logger
}

// DefaultConfig returns the default notification configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:    true,
		ShowInfo:   true,
		ShowErrors: true,
	}
}

// Notifier drains NotificationEvents from a bus and writes one line each.
type Notifier struct {
	out     io.Writer
	cfg     Config
	logger  *logging.Logger
	send    func(title, message string) error
	mu      sync.RWMutex
	enabled bool
	wg      sync.WaitGroup
}

// NewNotifier creates a notifier writing to out.
func NewNotifier(out io.Writer, cfg *Config) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Notifier{
		out:     out,
		cfg:     *cfg,
		logger:  logger,
		send:    desktopSend,
		enabled: cfg.Enabled,
	}
}

// desktopSend raises a system notification: toast on Windows, the
// notification center on macOS, D-Bus on Linux.
func desktopSend(title, message string) error {
	return beeep.Notify(title, message, "")
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Attach subscribes to bus and prints notifications until the returned
// stop function is called. stop prints whatever is still queued.
func (n *Notifier) Attach(bus *events.EventBus) (stop func()) {
	if bus == nil {
		return func() {}
	}
	ch := bus.Subscribe(events.EventNotification)
	done := make(chan struct{})
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				n.show(ev)
			case <-done:
				for {
					select {
					case ev, ok := <-ch:
						if !ok {
							return
						}
						n.show(ev)
					default:
						return
					}
				}
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			bus.Unsubscribe(events.EventNotification, ch)
			close(done)
			n.wg.Wait()
		})
	}
}

func (n *Notifier) show(ev events.Event) {
	if ne, ok := ev.(*events.NotificationEvent); ok {
		n.Show(ne)
	}
}

// Show writes a single notification, and forwards it to the desktop when
// enabled.
func (n *Notifier) Show(ev *events.NotificationEvent) {
	if !n.IsEnabled() || ev == nil {
		return
	}
	n.desktop(ev)
	if ev.Level < events.WarnLevel && !n.cfg.ShowInfo {
		return
	}
	if ev.Level >= events.WarnLevel && !n.cfg.ShowErrors {
		return
	}
	fmt.Fprintln(n.out, Format(ev))
}

func (n *Notifier) desktop(ev *events.NotificationEvent) {
	if !n.cfg.Desktop {
		return
	}
	switch {
	case ev.Level >= events.ErrorLevel:
		n.Failed(ev.Title, ev.Message)
	case ev.Title == UploadSavedTitle:
		n.UploadSaved(ev.Message)
	}
}

// UploadSaved raises a desktop notification for an uploaded file that
// now has a media record.
func (n *Notifier) UploadSaved(name string) {
	message := fmt.Sprintf("%q was added to the media library.", truncate(name, 60))
	if err := n.send(desktopTitle+": "+UploadSavedTitle, message); err != nil {
		n.logger.Warn().Err(err).Str("name", name).Msg("Failed to send upload notification")
	}
}

// Failed raises a desktop notification for an error.
func (n *Notifier) Failed(title, message string) {
	message = truncate(strings.ReplaceAll(message, "\n", " "), 100)
	if err := n.send(desktopTitle+": "+title, message); err != nil {
		n.logger.Warn().Err(err).Str("title", title).Msg("Failed to send error notification")
	}
}

// Format renders a notification as a single line.
func Format(ev *events.NotificationEvent) string {
	mark := "•"
	switch {
	case ev.Level >= events.ErrorLevel:
		mark = "✗"
	case ev.Level == events.WarnLevel:
		mark = "!"
	case ev.Level == events.InfoLevel:
		mark = "✓"
	}
	msg := strings.ReplaceAll(ev.Message, "\n", " ")
	if msg == "" || msg == ev.Title {
		return fmt.Sprintf("%s %s", mark, ev.Title)
	}
	return fmt.Sprintf("%s %s: %s", mark, ev.Title, truncate(msg, 120))
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// ShortenPath abbreviates a long local path for display.
func ShortenPath(path string) string {
	const maxLen = 60

	if len(path) <= maxLen {
		return path
	}

	_, file := filepath.Split(path)
	parentDir := filepath.Base(filepath.Dir(path))
	short := filepath.Join("...", parentDir, file)

	vol := filepath.VolumeName(path)
	if vol != "" && len(vol)+len(short)+1 <= maxLen {
		short = vol + string(filepath.Separator) + short
	}

	if len(short) > maxLen {
		return "..." + path[len(path)-(maxLen-3):]
	}
	return short
}
