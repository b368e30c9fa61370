// Package logging provides structured logging for the CLI and the dashboard server.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/distrohub/mediadesk/internal/events"
)

const consoleTimeFormat = "15:04:05"

// Logger wraps zerolog and optionally mirrors failures onto the event bus
// as user-facing notifications.
type Logger struct {
	zlog      zerolog.Logger
	json      bool
	component string
	eventBus  *events.EventBus
	output    io.Writer
}

// NewLogger creates a logger writing to stderr. Stdout is reserved for
// command output (tables, CSV) so it can be piped.
func NewLogger(json bool, eventBus *events.EventBus) *Logger {
	l := &Logger{json: json, eventBus: eventBus}
	l.SetOutput(os.Stderr)
	return l
}

// NewDefaultCLILogger creates a console logger without an event bus.
func NewDefaultCLILogger() *Logger {
	return NewLogger(false, nil)
}

// Nop returns a logger that discards everything. Used by tests and as a
// fallback when a component is built without one.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop(), output: io.Discard}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	child := *l
	child.component = name
	child.zlog = l.zlog.With().Str("component", name).Logger()
	return &child
}

// WithEventBus returns a copy that publishes notifications on bus.
func (l *Logger) WithEventBus(bus *events.EventBus) *Logger {
	child := *l
	child.eventBus = bus
	return &child
}

// EventBus returns the attached bus, possibly nil.
func (l *Logger) EventBus() *events.EventBus {
	return l.eventBus
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// With creates a child logger context.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// Zerolog exposes the underlying logger for libraries that take one.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

// SetOutput changes the output writer, e.g. to route logs above mpb bars.
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	var out io.Writer = w
	if !l.json {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	}
	ctx := zerolog.New(out).With().Timestamp()
	if l.component != "" {
		ctx = ctx.Str("component", l.component)
	}
	l.zlog = ctx.Logger()
}

// Output returns the current output writer.
func (l *Logger) Output() io.Writer {
	return l.output
}

// Debugf logs a debug message with printf-style formatting.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// Fail logs err at error level and publishes a notification with title.
// It is the single path for caught, non-fatal failures.
func (l *Logger) Fail(title string, err error) {
	l.zlog.Error().Err(err).Msg(title)
	l.eventBus.Notify(events.ErrorLevel, title, errorMessage(err), err)
}

// Notice logs msg at info level and publishes an info notification.
func (l *Logger) Notice(title, msg string) {
	l.zlog.Info().Msg(msg)
	l.eventBus.Notify(events.InfoLevel, title, msg, nil)
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: consoleTimeFormat,
	})
}
