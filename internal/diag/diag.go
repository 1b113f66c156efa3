// Package diag is the lowerer's diagnostic sink: a thin wrapper over
// logrus that maps the library's syslog-style LogLevel onto logrus levels
// and tags every line with the owning lowering run's correlation id.
package diag

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LogLevel follows syslog's severity scale (lower is more severe), the
// same convention the library's public Options use.
type LogLevel int

const (
	LogLevelEmergency LogLevel = iota
	LogLevelAlert
	LogLevelCritical
	LogLevelError
	LogLevelWarning
	LogLevelNotice
	LogLevelInfo
	LogLevelDebug
)

func (l LogLevel) logrusLevel() logrus.Level {
	switch {
	case l <= LogLevelError:
		return logrus.ErrorLevel
	case l == LogLevelWarning:
		return logrus.WarnLevel
	case l == LogLevelNotice, l == LogLevelInfo:
		return logrus.InfoLevel
	default:
		return logrus.TraceLevel
	}
}

// Sink is a session-scoped diagnostic emitter: every line it writes carries
// the same "session" field, so log output from concurrently lowered
// modules can be told apart.
type Sink struct {
	entry *logrus.Entry
}

// NewSink creates a Sink at the given LogLevel with a fresh session id.
func NewSink(level LogLevel) *Sink {
	logger := logrus.New()
	logger.SetLevel(level.logrusLevel())
	return &Sink{entry: logger.WithField("session", uuid.NewString())}
}

// Warnf logs a non-fatal condition the lowerer recovered from (e.g. an
// element segment offset that wasn't zero, or a table whose max differs
// from its initial size).
func (s *Sink) Warnf(format string, args ...interface{}) { s.entry.Warnf(format, args...) }

// Debugf logs per-phase progress detail.
func (s *Sink) Debugf(format string, args ...interface{}) { s.entry.Debugf(format, args...) }

// Tracef logs fine-grained, per-instruction detail; gated on LogLevelDebug
// the same as Debugf since the library's LogLevel scale stops there.
func (s *Sink) Tracef(format string, args ...interface{}) { s.entry.Tracef(format, args...) }

// WithField returns a Sink scoped to an additional structured field (e.g.
// the function or phase currently being lowered), leaving the receiver
// unaffected.
func (s *Sink) WithField(key string, value interface{}) *Sink {
	return &Sink{entry: s.entry.WithField(key, value)}
}
