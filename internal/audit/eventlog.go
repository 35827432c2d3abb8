package audit

import (
	"fmt"
	"io"
	"time"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/safing/banhammer/internal/log"
)

// EventLog is a rotated plain-text log of the same events recorded in the
// sqlite Trail, written in the reference's stable log-line format so
// operators can tail it directly.
type EventLog struct {
	writer io.WriteCloser
}

// NewEventLog opens a lumberjack-rotated log file at path. Zero values fall
// back to lumberjack's own defaults: a zero maxSizeMB means 100 MB, and a
// zero maxBackups or maxAgeDays keeps rotated files without limit.
func NewEventLog(path string, maxSizeMB, maxBackups, maxAgeDays int) *EventLog {
	return &EventLog{
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		},
	}
}

// Write appends one formatted event line, newline-terminated.
func (e *EventLog) Write(now time.Time, reason, dotted string) error {
	line := log.EventLine(now, reason, dotted) + "\n"
	_, err := e.writer.Write([]byte(line))
	if err != nil {
		return fmt.Errorf("writing audit log line: %w", err)
	}
	return nil
}

// Close closes the underlying rotated file.
func (e *EventLog) Close() error {
	return e.writer.Close()
}
