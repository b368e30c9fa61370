package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/distrohub/mediadesk/internal/events"
)

func TestJSONOutputCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(true, nil)
	l.SetOutput(&buf)

	l.Component("api").Info().Str("path", "/media-manager/stats/u1").Msg("request")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "api" {
		t.Errorf("component = %v, want api", entry["component"])
	}
	if entry["message"] != "request" {
		t.Errorf("message = %v, want request", entry["message"])
	}
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultCLILogger()
	l.SetOutput(&buf)

	l.Infof("uploaded %d files", 3)

	if !strings.Contains(buf.String(), "uploaded 3 files") {
		t.Errorf("console output = %q, want it to contain the message", buf.String())
	}
	if l.Output() != &buf {
		t.Error("Output() did not return the writer set by SetOutput")
	}
}

func TestFailPublishesNotification(t *testing.T) {
	bus := events.NewEventBus(4)
	defer bus.Close()
	ch := bus.Subscribe(events.EventNotification)

	var buf bytes.Buffer
	l := NewLogger(true, nil).WithEventBus(bus)
	l.SetOutput(&buf)

	l.Fail("Failed to delete folder", errors.New("status 500"))

	select {
	case ev := <-ch:
		n := ev.(*events.NotificationEvent)
		if n.Level != events.ErrorLevel {
			t.Errorf("Level = %v, want ERROR", n.Level)
		}
		if n.Title != "Failed to delete folder" || n.Message != "status 500" {
			t.Errorf("notification = %q/%q", n.Title, n.Message)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no notification published")
	}

	if !strings.Contains(buf.String(), "status 500") {
		t.Errorf("log output = %q, want the error", buf.String())
	}
}

func TestFailWithoutBus(t *testing.T) {
	Nop().Fail("nothing attached", errors.New("x"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
