package notify

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/distrohub/mediadesk/internal/events"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Enabled || !cfg.ShowInfo || !cfg.ShowErrors {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a long string", 10, "this is..."},
		{"", 10, ""},
		{"abc", 3, "abc"},
		{"abcd", 3, "..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestShortenPath(t *testing.T) {
	tests := []struct {
		input string
		short bool
	}{
		{"/short/path", false},
		{"/a/very/long/path/that/exceeds/the/maximum/length/for/notification/display/file.png", true},
	}

	for _, tt := range tests {
		result := ShortenPath(tt.input)
		if tt.short && len(result) >= len(tt.input) {
			t.Errorf("ShortenPath(%q) was not shortened: %q", tt.input, result)
		}
		if !tt.short && result != tt.input {
			t.Errorf("ShortenPath(%q) = %q", tt.input, result)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		ev   events.NotificationEvent
		want string
	}{
		{events.NotificationEvent{Level: events.InfoLevel, Title: "Folder created", Message: "Invoices"}, "✓ Folder created: Invoices"},
		{events.NotificationEvent{Level: events.ErrorLevel, Title: "Upload failed", Message: "line1\nline2"}, "✗ Upload failed: line1 line2"},
		{events.NotificationEvent{Level: events.WarnLevel, Title: "Slow"}, "! Slow"},
	}
	for _, tt := range tests {
		if got := Format(&tt.ev); got != tt.want {
			t.Errorf("Format() = %q, want %q", got, tt.want)
		}
	}
}

func TestAttachPrintsBusNotifications(t *testing.T) {
	bus := events.NewEventBus(8)
	defer bus.Close()

	var buf bytes.Buffer
	n := NewNotifier(&buf, &Config{Enabled: true, ShowErrors: true})
	stop := n.Attach(bus)
	bus.Notify(events.InfoLevel, "Saved", "ok", nil)
	bus.Notify(events.ErrorLevel, "Delete failed", "boom", errors.New("boom"))
	stop()

	out := buf.String()
	if strings.Contains(out, "Saved") {
		t.Errorf("info shown with ShowInfo=false: %q", out)
	}
	if !strings.Contains(out, "✗ Delete failed: boom") {
		t.Errorf("error not shown: %q", out)
	}
}

func TestInfoOnly(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier(&buf, &Config{Enabled: true, ShowInfo: true})
	n.Show(&events.NotificationEvent{Level: events.ErrorLevel, Title: "Delete failed"})
	n.Show(&events.NotificationEvent{Level: events.InfoLevel, Title: "Uploaded", Message: "a.png"})
	if got := strings.TrimSpace(buf.String()); got != "✓ Uploaded: a.png" {
		t.Errorf("output = %q", got)
	}
}

func TestDisabled(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier(&buf, nil)
	n.SetEnabled(false)
	n.Show(&events.NotificationEvent{Level: events.ErrorLevel, Title: "x"})
	if buf.Len() != 0 {
		t.Errorf("disabled notifier wrote %q", buf.String())
	}
}

type sent struct{ title, message string }

func withFakeDesktop(n *Notifier, fail error) *[]sent {
	var got []sent
	n.send = func(title, message string) error {
		got = append(got, sent{title, message})
		return fail
	}
	return &got
}

func TestDesktopSink(t *testing.T) {
	tests := []struct {
		name    string
		desktop bool
		ev      events.NotificationEvent
		want    string
	}{
		{"upload saved", true, events.NotificationEvent{Level: events.InfoLevel, Title: UploadSavedTitle, Message: "logo.png"}, "mediadesk: Upload saved"},
		{"error", true, events.NotificationEvent{Level: events.ErrorLevel, Title: "Refresh failed", Message: "GET /stats failed"}, "mediadesk: Refresh failed"},
		{"other info stays in the terminal", true, events.NotificationEvent{Level: events.InfoLevel, Title: "Folder created", Message: "Invoices"}, ""},
		{"warning stays in the terminal", true, events.NotificationEvent{Level: events.WarnLevel, Title: "Slow"}, ""},
		{"off by default", false, events.NotificationEvent{Level: events.ErrorLevel, Title: "Delete failed"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n := NewNotifier(&buf, &Config{Enabled: true, ShowInfo: true, Desktop: tt.desktop})
			got := withFakeDesktop(n, nil)
			n.Show(&tt.ev)

			if tt.want == "" {
				if len(*got) != 0 {
					t.Errorf("desktop notifications = %+v", *got)
				}
			} else if len(*got) != 1 || (*got)[0].title != tt.want {
				t.Errorf("desktop notifications = %+v, want title %q", *got, tt.want)
			}
			if tt.ev.Level < events.WarnLevel && buf.Len() == 0 {
				t.Error("terminal line missing")
			}
		})
	}
}

func TestDesktopFailureKeepsTerminalOutput(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier(&buf, &Config{Enabled: true, ShowInfo: true, Desktop: true})
	got := withFakeDesktop(n, errors.New("no dbus session"))
	n.Show(&events.NotificationEvent{Level: events.InfoLevel, Title: UploadSavedTitle, Message: "a.png"})

	if len(*got) != 1 || !strings.Contains((*got)[0].message, "a.png") {
		t.Errorf("desktop notifications = %+v", *got)
	}
	if !strings.Contains(buf.String(), "✓ Upload saved: a.png") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestDesktopRespectsDisabled(t *testing.T) {
	n := NewNotifier(io.Discard, &Config{Enabled: true, Desktop: true})
	got := withFakeDesktop(n, nil)
	n.SetEnabled(false)
	n.Show(&events.NotificationEvent{Level: events.ErrorLevel, Title: "x"})
	if len(*got) != 0 {
		t.Errorf("disabled notifier sent %+v", *got)
	}
}
