// Package firewall implements the attack-detection engine: the
// per-source-address state machine, its time-windowed counters, the
// ban/unban lifecycle, and the integration with static allow/deny CIDR
// sets.
//
// Firewall is an owned value with no process-wide state. Callers sample
// "now" once per Observe or Purge call and are expected to be
// single-threaded; all accounting is advisory in the face of races, per
// spec.md §5.
package firewall

import (
	"time"

	"github.com/safing/banhammer/internal/addrstats"
	"github.com/safing/banhammer/internal/bantable"
	"github.com/safing/banhammer/internal/cidrset"
	"github.com/safing/banhammer/internal/netutils"
)

// Reasons mirror the log-line reasons spec.md §6 declares as stable: one of
// these is reported to the EventLogger for every non-trivial Observe
// outcome. They are also used for metrics labels and audit records.
const (
	ReasonFirstPacket  = "First packet"
	ReasonReappearance = "Reappearance"
	ReasonMultiport    = "Multiport"
	ReasonFlood        = "Flood"
	ReasonBlacklist    = "Blacklist"
	ReasonWhitelist    = "Whitelist"
	ReasonUnban        = "Unban"
	ReasonQuery        = "Query"
	ReasonProtecting   = "Protecting"
)

// EventLogger receives one call per Observe/Purge outcome worth recording,
// in the reference's log-line vocabulary. It is optional; a nil EventLogger
// means no logging.
type EventLogger interface {
	Event(reason string, addr uint32)
}

// BanFunc is called exactly once per ban transition (multi-port, flood, or
// blacklist), after the address has been moved into the ban table.
type BanFunc func(addr uint32)

// UnbanFunc is called exactly once per ban release, after the address has
// been removed from the ban table.
type UnbanFunc func(addr uint32)

// Firewall is the orchestrator described in spec.md §4.4. It consults, in
// order, the special-address filter, the dynamic whitelist, the ban table,
// the static exception list, the static blacklist, and the per-address
// statistics, emitting a Verdict and invoking the ban/unban callbacks on
// transitions.
type Firewall struct {
	cfg Config

	stats     map[uint32]*addrstats.Stats
	bans      *bantable.Table
	whitelist map[uint32]struct{}

	blacklistMatcher *cidrset.Set
	exceptionMatcher *cidrset.Set

	lastPurge time.Time

	ban    BanFunc
	unban  UnbanFunc
	logger EventLogger
}

// New returns a Firewall with no whitelist entries, no CIDR matchers, and
// no callbacks. Use the Set* setters to wire it up.
func New(cfg Config) *Firewall {
	return &Firewall{
		cfg:       cfg,
		stats:     make(map[uint32]*addrstats.Stats),
		bans:      bantable.NewTable(),
		whitelist: make(map[uint32]struct{}),
	}
}

// SetCallbacks wires the external ban/unban collaborators. Either may be
// nil.
func (f *Firewall) SetCallbacks(ban BanFunc, unban UnbanFunc) {
	f.ban = ban
	f.unban = unban
}

// SetLogger wires the optional event logger.
func (f *Firewall) SetLogger(logger EventLogger) {
	f.logger = logger
}

// SetMatchers wires the static blacklist and exception CIDR matchers.
// Either may be nil, meaning "no such list".
func (f *Firewall) SetMatchers(blacklist, exception *cidrset.Set) {
	f.blacklistMatcher = blacklist
	f.exceptionMatcher = exception
}

// AddWhitelist adds addr to the dynamic whitelist, e.g. for a locally owned
// interface address or an address promoted via the static exception list.
func (f *Firewall) AddWhitelist(addr uint32) {
	f.whitelist[addr] = struct{}{}
}

// Protect whitelists addr and logs ReasonProtecting, for addresses bound to
// a local interface at startup. Unlike the exception-list promotion inside
// observeNewAddress, this is an explicit, caller-driven whitelist with its
// own log line.
func (f *Firewall) Protect(addr uint32) {
	f.whitelist[addr] = struct{}{}
	f.log(ReasonProtecting, addr)
}

func (f *Firewall) log(reason string, addr uint32) {
	if f.logger != nil {
		f.logger.Event(reason, addr)
	}
}

func (f *Firewall) emitBan(addr uint32) {
	if f.ban != nil {
		f.ban(addr)
	}
}

func (f *Firewall) emitUnban(addr uint32) {
	if f.unban != nil {
		f.unban(addr)
	}
}

// Observe is the firewall's single entry point for inbound packets: it
// classifies the packet from addr/port, mutates internal tables, and
// returns a Verdict. now is sampled once by the caller and used for every
// time comparison this call makes.
func (f *Firewall) Observe(addr uint32, port uint16, now time.Time) Verdict {
	if netutils.IsSpecial(addr) {
		return Unbanned
	}

	if _, ok := f.whitelist[addr]; ok {
		return Unbanned
	}

	if info, ok := f.bans.Get(addr); ok {
		if info.TimedOut(now) {
			f.bans.Remove(addr)
			f.log(ReasonUnban, addr)
			f.emitUnban(addr)
			return Unban
		}
		return Banned
	}

	stats, ok := f.stats[addr]
	if !ok {
		return f.observeNewAddress(addr, port, now)
	}
	return f.observeExistingAddress(addr, port, now, stats)
}

func (f *Firewall) observeNewAddress(addr uint32, port uint16, now time.Time) Verdict {
	if f.exceptionMatcher != nil && f.exceptionMatcher.Contains(addr) {
		f.whitelist[addr] = struct{}{}
		f.log(ReasonWhitelist, addr)
		return Unbanned
	}

	if f.blacklistMatcher != nil && f.blacklistMatcher.Contains(addr) {
		f.bans.Insert(addr, now, f.cfg.BanDurationBlacklist)
		f.log(ReasonBlacklist, addr)
		f.emitBan(addr)
		return Ban
	}

	f.stats[addr] = addrstats.New(port, now, f.cfg.MaxPackets)
	f.log(ReasonFirstPacket, addr)
	return Unbanned
}

func (f *Firewall) observeExistingAddress(addr uint32, port uint16, now time.Time, stats *addrstats.Stats) Verdict {
	if stats.TimedOut(now, f.cfg.Timeout) {
		stats.Reset(port, now)
		f.log(ReasonReappearance, addr)
		return Unbanned
	}

	stats.RemoveStalePorts(now, f.cfg.Timeout)
	stats.SeePort(port, now)

	// Multi-port detection takes precedence over flood detection: an
	// address whose port set already exceeds MaxPorts is banned before its
	// new packet is counted toward the flood window.
	if stats.PortCount() > f.cfg.MaxPorts {
		delete(f.stats, addr)
		f.bans.Insert(addr, now, f.cfg.BanDurationMultiport)
		f.log(ReasonMultiport, addr)
		f.emitBan(addr)
		return Ban
	}

	stats.RecordPacket(now)
	if stats.HitLimit(f.cfg.MaxPacketFrame) {
		delete(f.stats, addr)
		f.bans.Insert(addr, now, f.cfg.BanDurationFlood)
		f.log(ReasonFlood, addr)
		f.emitBan(addr)
		return Ban
	}

	return Unbanned
}

// IsActive reports whether addr has a live (not timed-out) statistics
// record, using the firewall's configured Timeout.
func (f *Firewall) IsActive(addr uint32) bool {
	return f.IsActiveWithTimeout(addr, f.cfg.Timeout)
}

// IsActiveWithTimeout is IsActive with an explicit timeout override.
func (f *Firewall) IsActiveWithTimeout(addr uint32, timeout time.Duration) bool {
	stats, ok := f.stats[addr]
	if !ok {
		return false
	}
	now := time.Now()
	return !stats.TimedOut(now, timeout)
}

// Query answers an external verification request for addr and logs
// ReasonQuery, mirroring the original's verification socket: a front end
// (the game server) asks whether an address is currently active before
// deciding whether to trust traffic from it.
func (f *Firewall) Query(addr uint32) bool {
	active := f.IsActive(addr)
	f.log(ReasonQuery, addr)
	return active
}

// Purge is a cheap, bounded sweep: stale statistics records are evicted,
// and bans that have actually expired are released (with Unban emitted
// exactly once per release). It is a no-op unless more than PurgeInterval
// has elapsed since the last sweep; the first sweep always runs.
func (f *Firewall) Purge(now time.Time) {
	if !f.lastPurge.IsZero() && now.Sub(f.lastPurge) <= f.cfg.PurgeInterval {
		return
	}

	for addr, stats := range f.stats {
		if stats.TimedOut(now, f.cfg.Timeout) {
			delete(f.stats, addr)
		}
	}

	f.bans.Range(func(addr uint32, info bantable.Info) {
		if info.TimedOut(now) {
			f.bans.Remove(addr)
			f.log(ReasonUnban, addr)
			f.emitUnban(addr)
		}
	})

	f.lastPurge = now
}

// Shutdown emits Unban for every address still present in the ban table, so
// the external blocker leaves no residue, then clears internal state.
func (f *Firewall) Shutdown() {
	f.bans.Range(func(addr uint32, _ bantable.Info) {
		f.emitUnban(addr)
	})
	f.bans = bantable.NewTable()
	f.stats = make(map[uint32]*addrstats.Stats)
}

// StatsCount returns the number of addresses currently tracked in stats.
// Exposed for metrics/introspection.
func (f *Firewall) StatsCount() int {
	return len(f.stats)
}

// BanCount returns the number of addresses currently banned. Exposed for
// metrics/introspection.
func (f *Firewall) BanCount() int {
	return f.bans.Len()
}
