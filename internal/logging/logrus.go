// Package logging adapts momo.Logger to logrus, the structured logger
// the wider retrieval pack reaches for wherever it needs more than the
// standard library's log package.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/YaniKolev/momo-scheduler/internal/momo"
)

// LogrusLogger implements momo.Logger over a *logrus.Logger.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger builds a LogrusLogger. If base is nil, a default
// instance is created: text formatting when LOG_FORMAT=text, JSON
// formatting otherwise, at the level named by LOG_LEVEL (info when
// unset or unparsable).
func NewLogrusLogger(base *logrus.Logger) momo.Logger {
	if base == nil {
		base = logrus.New()
		base.SetOutput(os.Stdout)
		if os.Getenv("LOG_FORMAT") == "text" {
			base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		} else {
			base.SetFormatter(&logrus.JSONFormatter{})
		}
		level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
		if err != nil {
			level = logrus.InfoLevel
		}
		base.SetLevel(level)
	}
	return &LogrusLogger{entry: logrus.NewEntry(base)}
}

// WithScheduleID returns a LogrusLogger that tags every entry with
// scheduleId, so log lines from a multi-instance deployment can be
// attributed to the process that emitted them.
func (l *LogrusLogger) WithScheduleID(scheduleID string) *LogrusLogger {
	return &LogrusLogger{entry: l.entry.WithField("scheduleId", scheduleID)}
}

func (l *LogrusLogger) Debug(msg string, fields momo.Fields) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l *LogrusLogger) Error(msg string, errorType string, fields momo.Fields, cause error) {
	entry := l.entry.WithFields(logrus.Fields(fields)).WithField("errorType", errorType)
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Error(msg)
}
