// Package log wires the process's structured logger the way the teacher's
// own logging package does: a tint-colored slog handler, picking colors on
// or off depending on whether the output is a terminal.
package log

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Severity mirrors the teacher's log.Severity: a small, ordered set of
// levels that collapses to slog.Level for the actual handler.
type Severity int

const (
	TraceLevel Severity = iota
	DebugLevel
	InfoLevel
	WarningLevel
	ErrorLevel
	CriticalLevel
)

func (s Severity) String() string {
	switch s {
	case TraceLevel:
		return "trace"
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarningLevel:
		return "warning"
	case ErrorLevel:
		return "error"
	case CriticalLevel:
		return "critical"
	default:
		return "unknown"
	}
}

func (s Severity) toSLogLevel() slog.Level {
	switch s {
	case TraceLevel, DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarningLevel:
		return slog.LevelWarn
	case ErrorLevel, CriticalLevel:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// ParseSeverity parses a level name as accepted in config files and CLI
// flags. Unknown names fall back to InfoLevel.
func ParseSeverity(name string) Severity {
	switch name {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "warning":
		return WarningLevel
	case "error":
		return ErrorLevel
	case "critical":
		return CriticalLevel
	default:
		return InfoLevel
	}
}

const timeFormat = "2006-01-02 15:04:05"

// Setup installs a tint-colored slog handler as the process default logger,
// writing to w (os.Stderr if nil). Colors are enabled only when w is a
// terminal.
func Setup(level Severity, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	var out io.Writer = w
	if !noColor {
		out = colorable.NewColorable(w.(*os.File))
	}

	handler := tint.NewHandler(out, &tint.Options{
		Level:      level.toSLogLevel(),
		TimeFormat: timeFormat,
		NoColor:    noColor,
	})

	slog.SetDefault(slog.New(handler))
}

// EventLine renders a single firewall event in the reference's stable log
// format: "[YYYY-MM-DD HH:MM:SS] <reason>: A.B.C.D".
func EventLine(now time.Time, reason, dotted string) string {
	return "[" + now.Format(timeFormat) + "] " + reason + ": " + dotted
}
