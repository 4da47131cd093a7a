// Package notify provides the message sink every plugswitch component
// reports through.
//
// The minimal capability is Notifier, a single-string sink. Sinks that also
// implement Leveled receive a severity with each message; the package-level
// helpers pick the richer path when it is available.
package notify

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a message.
type Level int

const (
	// LevelDebug is for traversal detail.
	LevelDebug Level = iota
	// LevelInfo is for normal progress messages.
	LevelInfo
	// LevelWarn is for inconsistencies that need attention.
	LevelWarn
	// LevelError is for failed operations.
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Notifier is a single-string message sink.
type Notifier interface {
	Message(msg string)
}

// Leveled is a Notifier that also accepts a severity.
type Leveled interface {
	Notifier
	Log(level Level, msg string)
}

// Debugf reports a debug message.
func Debugf(n Notifier, format string, args ...any) { emit(n, LevelDebug, format, args...) }

// Infof reports an informational message.
func Infof(n Notifier, format string, args ...any) { emit(n, LevelInfo, format, args...) }

// Warnf reports a warning.
func Warnf(n Notifier, format string, args ...any) { emit(n, LevelWarn, format, args...) }

// Errorf reports an error.
func Errorf(n Notifier, format string, args ...any) { emit(n, LevelError, format, args...) }

func emit(n Notifier, level Level, format string, args ...any) {
	if n == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l, ok := n.(Leveled); ok {
		l.Log(level, msg)
		return
	}
	switch level {
	case LevelWarn:
		msg = "Warning: " + msg
	case LevelError:
		msg = "Error: " + msg
	}
	n.Message(msg)
}

// Logrus sends messages to a logrus entry.
type Logrus struct {
	entry *logrus.Entry
}

// NewLogrus creates a notifier that logs through log with a component field.
func NewLogrus(log *logrus.Logger, component string) *Logrus {
	return &Logrus{entry: log.WithField("component", component)}
}

// WithComponent returns a notifier sharing the logger with a different component.
func (l *Logrus) WithComponent(component string) *Logrus {
	return &Logrus{entry: l.entry.WithField("component", component)}
}

// Message logs msg at info level.
func (l *Logrus) Message(msg string) {
	l.entry.Info(msg)
}

// Log logs msg at level.
func (l *Logrus) Log(level Level, msg string) {
	switch level {
	case LevelDebug:
		l.entry.Debug(msg)
	case LevelWarn:
		l.entry.Warn(msg)
	case LevelError:
		l.entry.Error(msg)
	default:
		l.entry.Info(msg)
	}
}

// Discard drops every message.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Message(string) {}

// Record is one captured message.
type Record struct {
	Level   Level
	Message string
}

// Recorder captures messages in memory. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Message records msg at info level.
func (r *Recorder) Message(msg string) {
	r.Log(LevelInfo, msg)
}

// Log records msg at level.
func (r *Recorder) Log(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{Level: level, Message: msg})
}

// Records returns a copy of everything recorded.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Messages returns the recorded messages at or above min.
func (r *Recorder) Messages(min Level) []string {
	var out []string
	for _, rec := range r.Records() {
		if rec.Level >= min {
			out = append(out, rec.Message)
		}
	}
	return out
}

// Contains reports whether any message at level contains substr.
func (r *Recorder) Contains(level Level, substr string) bool {
	for _, rec := range r.Records() {
		if rec.Level == level && strings.Contains(rec.Message, substr) {
			return true
		}
	}
	return false
}

// Count returns the number of messages at level.
func (r *Recorder) Count(level Level) int {
	n := 0
	for _, rec := range r.Records() {
		if rec.Level == level {
			n++
		}
	}
	return n
}

// Reset discards everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}
