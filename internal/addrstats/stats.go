// Package addrstats implements the per-source-address behavioral record
// the firewall uses to detect packet floods and port-scanning: a bounded
// ring of recent packet timestamps plus a map of recently-seen source
// ports.
package addrstats

import "time"

// DefaultRingSize is N from spec.md §3: the number of recent packet
// timestamps retained per address by default. Callers that want a
// different MAX_PACKETS tunable pass their own ring size to New.
const DefaultRingSize = 80

// MaxPorts is the number of distinct source ports an address may use
// within Timeout before it is considered a port scanner.
const MaxPorts = 3

// Timeout is how long an address may go without a packet before its
// record is considered stale, absent an operator override.
const Timeout = 60 * time.Second

// DefaultMaxPacketFrame is the width of the sliding window the flood
// detector checks by default: once more than ring-size packets have been
// recorded, the last ring-size of them arriving inside this span is a
// flood. Callers that want a different MAX_PACKET_FRAME tunable
// pass their own duration to HitLimit.
const DefaultMaxPacketFrame = 1 * time.Second

// Stats is the per-source-address behavioral record.
//
// ring[cursor] always holds the most recently written timestamp.
// ring[(cursor+1) % len(ring)] holds the oldest of the last len(ring)
// timestamps, but only once packetCount has reached len(ring) — before
// that it is unused zero-value data and must not be read.
type Stats struct {
	ring        []time.Time
	cursor      int
	packetCount uint64
	ports       map[uint16]time.Time
}

// New creates a record for an address's first observed packet. now is the
// sampled current time; port is the source port of that first packet;
// ringSize is the operator's MAX_PACKETS tunable (spec.md §3), i.e. how
// many recent packet timestamps the flood detector's sliding window holds.
func New(port uint16, now time.Time, ringSize int) *Stats {
	s := &Stats{
		ring:  make([]time.Time, ringSize),
		ports: make(map[uint16]time.Time, MaxPorts+1),
	}
	s.Reset(port, now)
	return s
}

// Reset reinitializes the record as if it had just been created by New,
// reusing the allocation. Used when a record has gone stale and a new
// packet arrives from the same address (spec.md §4.2, branch 4a).
func (s *Stats) Reset(port uint16, now time.Time) {
	s.cursor = 0
	s.packetCount = 1
	s.ring[0] = now
	for k := range s.ports {
		delete(s.ports, k)
	}
	s.ports[port] = now
}

// PacketCount returns the number of packets recorded since creation or
// the last Reset.
func (s *Stats) PacketCount() uint64 {
	return s.packetCount
}

// PortCount returns the number of distinct source ports currently tracked.
func (s *Stats) PortCount() int {
	return len(s.ports)
}

// SeePort updates ports[port] = now. The caller does this before calling
// RecordPacket, per spec.md §4.2.
func (s *Stats) SeePort(port uint16, now time.Time) {
	s.ports[port] = now
}

// RecordPacket advances the ring cursor, writes now into the new slot, and
// increments packetCount.
func (s *Stats) RecordPacket(now time.Time) {
	s.cursor = (s.cursor + 1) % len(s.ring)
	s.ring[s.cursor] = now
	s.packetCount++
}

// RemoveStalePorts deletes every port entry whose last-seen time is older
// than timeout relative to now.
func (s *Stats) RemoveStalePorts(now time.Time, timeout time.Duration) {
	for port, seen := range s.ports {
		if nonNegativeSub(now, seen) > timeout {
			delete(s.ports, port)
		}
	}
}

// TimedOut reports whether now is more than timeout past the most recent
// recorded packet.
func (s *Stats) TimedOut(now time.Time, timeout time.Duration) bool {
	return nonNegativeSub(now, s.ring[s.cursor]) > timeout
}

// HitLimit reports whether the last len(ring) packets all arrived within
// maxPacketFrame of each other.
//
// This never fires until packetCount exceeds len(ring): the first
// len(ring) packets from an address never themselves trigger a flood ban,
// because ring[cursor+1] only becomes meaningful once the ring has wrapped
// at least once. The comparison is strictly ">" len(ring), not ">=", by
// design (spec.md §9).
func (s *Stats) HitLimit(maxPacketFrame time.Duration) bool {
	ringSize := len(s.ring)
	if s.packetCount <= uint64(ringSize) {
		return false
	}
	oldest := (s.cursor + 1) % ringSize
	return nonNegativeSub(s.ring[s.cursor], s.ring[oldest]) < maxPacketFrame
}

// nonNegativeSub returns a-b clamped to zero, so a clock that steps
// backward never produces a negative duration that could be misread as
// "very recent" or crash a caller doing unsigned arithmetic.
func nonNegativeSub(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return 0
	}
	return d
}
