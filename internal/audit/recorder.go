package audit

import (
	"log/slog"
	"time"

	"github.com/safing/banhammer/internal/firewall"
	banhammerlog "github.com/safing/banhammer/internal/log"
)

// Recorder fans a single firewall event out to the sqlite trail, the
// rotated plain-text log, and a slog logger, satisfying
// firewall.EventLogger. Any of Trail/EventLog/Logger may be nil.
type Recorder struct {
	Trail  *Trail
	Log    *EventLog
	Logger *slog.Logger
	Now    func() time.Time
}

var _ firewall.EventLogger = (*Recorder)(nil)

// Event implements firewall.EventLogger.
func (r *Recorder) Event(reason string, addr uint32) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	occurredAt := now()
	dotted := banhammerlog.Dotted(addr)
	verdict := verdictForReason(reason)

	if r.Trail != nil {
		if err := r.Trail.Record(occurredAt, reason, dotted, verdict); err != nil {
			r.warn("failed to write audit record", err)
		}
	}
	if r.Log != nil {
		if err := r.Log.Write(occurredAt, reason, dotted); err != nil {
			r.warn("failed to write audit log line", err)
		}
	}
	if r.Logger != nil {
		r.Logger.Info(reason, "addr", dotted, "verdict", verdict)
	}
}

func (r *Recorder) warn(msg string, err error) {
	if r.Logger != nil {
		r.Logger.Warn(msg, "error", err)
	}
}

func verdictForReason(reason string) string {
	switch reason {
	case firewall.ReasonMultiport, firewall.ReasonFlood, firewall.ReasonBlacklist:
		return "ban"
	case firewall.ReasonUnban:
		return "unban"
	case firewall.ReasonWhitelist:
		return "whitelist"
	default:
		return "observe"
	}
}
