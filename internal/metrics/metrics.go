// Package metrics exposes the daemon's counters on a Prometheus text
// endpoint via VictoriaMetrics/metrics, the way the teacher's own
// base/metrics package wraps that library.
package metrics

import (
	"io"

	vm "github.com/VictoriaMetrics/metrics"
)

// Set holds every counter and gauge the daemon publishes. It is isolated
// from the package-level default set so tests can create independent
// instances.
type Set struct {
	set *vm.Set

	packetsObserved *vm.Counter
	bansMultiport   *vm.Counter
	bansFlood       *vm.Counter
	bansBlacklist   *vm.Counter
	unbans          *vm.Counter
	whitelisted     *vm.Counter
}

// New creates a fresh, unregistered metrics set with every counter
// initialized to zero.
func New() *Set {
	s := vm.NewSet()
	return &Set{
		set:             s,
		packetsObserved: s.NewCounter("banhammer_packets_observed_total"),
		bansMultiport:   s.NewCounter(`banhammer_bans_total{reason="multiport"}`),
		bansFlood:       s.NewCounter(`banhammer_bans_total{reason="flood"}`),
		bansBlacklist:   s.NewCounter(`banhammer_bans_total{reason="blacklist"}`),
		unbans:          s.NewCounter("banhammer_unbans_total"),
		whitelisted:     s.NewCounter("banhammer_whitelisted_total"),
	}
}

// RegisterGauges wires active-bans/active-stats gauges that sample the
// firewall on every scrape. Call once after the firewall is constructed.
func (s *Set) RegisterGauges(activeBans, activeStats func() float64) {
	s.set.NewGauge("banhammer_active_bans", activeBans)
	s.set.NewGauge("banhammer_active_stats", activeStats)
}

// ObservePacket increments the total inbound-packet counter.
func (s *Set) ObservePacket() { s.packetsObserved.Inc() }

// ObserveWhitelist increments the whitelist-promotion counter.
func (s *Set) ObserveWhitelist() { s.whitelisted.Inc() }

// ObserveBan increments the ban counter for the given reason. Unknown
// reasons are not counted in any series.
func (s *Set) ObserveBan(reason string) {
	switch reason {
	case "Multiport":
		s.bansMultiport.Inc()
	case "Flood":
		s.bansFlood.Inc()
	case "Blacklist":
		s.bansBlacklist.Inc()
	}
}

// ObserveUnban increments the unban counter.
func (s *Set) ObserveUnban() { s.unbans.Inc() }

// WritePrometheus writes the set's metrics in Prometheus text exposition
// format.
func (s *Set) WritePrometheus(w io.Writer) {
	s.set.WritePrometheus(w)
}
