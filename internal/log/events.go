package log

import (
	"fmt"
	"log/slog"
)

// Dotted formats a host-byte-order IPv4 address as dotted-quad.
func Dotted(addr uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(addr>>24), byte(addr>>16), byte(addr>>8), byte(addr))
}

// EventLogger adapts the firewall's EventLogger interface onto slog, using
// the reference's reason vocabulary as the message and the dotted address
// as a structured field.
type EventLogger struct {
	Logger *slog.Logger
}

// Event implements firewall.EventLogger.
func (l EventLogger) Event(reason string, addr uint32) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(reason, "addr", Dotted(addr))
}

// MultiLogger dispatches every event to each of its receivers in order.
// Nil receivers are skipped, matching the other Set* wiring points in
// this codebase that treat nil as "not configured".
type MultiLogger []interface {
	Event(reason string, addr uint32)
}

// Event implements firewall.EventLogger.
func (m MultiLogger) Event(reason string, addr uint32) {
	for _, receiver := range m {
		if receiver != nil {
			receiver.Event(reason, addr)
		}
	}
}
