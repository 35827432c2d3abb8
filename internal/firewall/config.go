package firewall

import (
	"time"

	"github.com/safing/banhammer/internal/addrstats"
)

// Config holds the firewall's tunable constants. The zero value is not
// usable; use DefaultConfig or fill in every field.
type Config struct {
	// MaxPorts is the number of distinct source ports an address may use
	// within Timeout before it is banned as a port scanner.
	MaxPorts int
	// Timeout is how long an address may go without a packet before its
	// statistics record is considered stale.
	Timeout time.Duration
	// PurgeInterval is the minimum spacing between purge sweeps.
	PurgeInterval time.Duration
	// MaxPackets is N from spec.md §3: the size of the per-address ring
	// buffer of recent packet timestamps the flood detector slides over.
	MaxPackets int
	// MaxPacketFrame is the width of the sliding window the flood detector
	// checks: once more than MaxPackets packets have been recorded, the
	// last MaxPackets of them arriving inside this span is a flood.
	MaxPacketFrame time.Duration
	// BanDurationMultiport is how long a multi-port ban lasts.
	BanDurationMultiport time.Duration
	// BanDurationFlood is how long a flood ban lasts.
	BanDurationFlood time.Duration
	// BanDurationBlacklist is how long a static-blacklist ban lasts.
	BanDurationBlacklist time.Duration
}

// DefaultConfig returns the reference tunable values from spec.md §3.
func DefaultConfig() Config {
	return Config{
		MaxPorts:             3,
		Timeout:              60 * time.Second,
		PurgeInterval:        30 * time.Second,
		MaxPackets:           addrstats.DefaultRingSize,
		MaxPacketFrame:       addrstats.DefaultMaxPacketFrame,
		BanDurationMultiport: 60 * time.Second,
		BanDurationFlood:     60 * time.Second,
		BanDurationBlacklist: 3600 * time.Second,
	}
}
