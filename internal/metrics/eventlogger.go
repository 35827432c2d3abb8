package metrics

import "github.com/safing/banhammer/internal/firewall"

// EventLogger adapts Set onto firewall.EventLogger so every ban reason the
// firewall reports also increments the matching Prometheus counter.
type EventLogger struct {
	Set *Set
}

var _ firewall.EventLogger = EventLogger{}

// Event implements firewall.EventLogger.
func (l EventLogger) Event(reason string, addr uint32) {
	switch reason {
	case firewall.ReasonMultiport, firewall.ReasonFlood, firewall.ReasonBlacklist:
		l.Set.ObserveBan(reason)
	case firewall.ReasonWhitelist:
		l.Set.ObserveWhitelist()
	}
}
