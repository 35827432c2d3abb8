// Package config loads the daemon's YAML configuration file and watches
// the static CIDR files it references for changes, the way the teacher's
// file-backed config loaders do.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/safing/banhammer/internal/addrstats"
)

// Config is the top-level configuration file shape.
type Config struct {
	Interface string         `yaml:"interface"`
	Firewall  FirewallConfig `yaml:"firewall"`
	Lists     ListsConfig    `yaml:"lists"`
	Audit     AuditConfig    `yaml:"audit"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	Query     QueryConfig    `yaml:"query"`
	Logging   LoggingConfig  `yaml:"logging"`
}

// FirewallConfig mirrors spec.md §3's tunable constants table in full: all
// 8 constants (MAX_PORTS, TIMEOUT, PURGE_INTERVAL, MAX_PACKETS,
// MAX_PACKET_FRAME, and the three BAN_DURATION_* values) are overridable.
type FirewallConfig struct {
	MaxPorts             int           `yaml:"max_ports"`
	Timeout              time.Duration `yaml:"timeout"`
	PurgeInterval        time.Duration `yaml:"purge_interval"`
	MaxPackets           int           `yaml:"max_packets"`
	MaxPacketFrame       time.Duration `yaml:"max_packet_frame"`
	BanDurationMultiport time.Duration `yaml:"ban_duration_multiport"`
	BanDurationFlood     time.Duration `yaml:"ban_duration_flood"`
	BanDurationBlacklist time.Duration `yaml:"ban_duration_blacklist"`
}

// ListsConfig names the static CIDR files loaded at startup and watched
// for changes.
type ListsConfig struct {
	BlacklistFile string `yaml:"blacklist_file"`
	ExceptionFile string `yaml:"exception_file"`
}

// AuditConfig configures the sqlite audit trail.
type AuditConfig struct {
	DatabasePath string `yaml:"database_path"`
	LogPath      string `yaml:"log_path"`
	MaxSizeMB    int    `yaml:"max_size_mb"`
	MaxBackups   int    `yaml:"max_backups"`
	MaxAgeDays   int    `yaml:"max_age_days"`
}

// MetricsConfig configures the HTTP admin/metrics API.
type MetricsConfig struct {
	ListenAddress string `yaml:"listen_address"`
}

// QueryConfig configures the loopback verification service external
// processes use to ask whether an address is currently active.
type QueryConfig struct {
	ListenAddress string `yaml:"listen_address"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the reference tunables from spec.md §3 plus sensible
// paths for everything else.
func Default() Config {
	return Config{
		Interface: "any",
		Firewall: FirewallConfig{
			MaxPorts:             3,
			Timeout:              60 * time.Second,
			PurgeInterval:        30 * time.Second,
			MaxPackets:           addrstats.DefaultRingSize,
			MaxPacketFrame:       addrstats.DefaultMaxPacketFrame,
			BanDurationMultiport: 60 * time.Second,
			BanDurationFlood:     60 * time.Second,
			BanDurationBlacklist: 3600 * time.Second,
		},
		Lists: ListsConfig{
			BlacklistFile: "/etc/banhammer/blacklist.cidr",
			ExceptionFile: "/etc/banhammer/exceptions.cidr",
		},
		Audit: AuditConfig{
			DatabasePath: "/var/lib/banhammer/audit.db",
			LogPath:      "/var/log/banhammer/events.log",
			MaxSizeMB:    50,
			MaxBackups:   5,
			MaxAgeDays:   30,
		},
		Metrics: MetricsConfig{
			ListenAddress: "127.0.0.1:9980",
		},
		Query: QueryConfig{
			ListenAddress: "127.0.0.1:1337",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads and parses the YAML configuration file at path, starting from
// Default so an incomplete file still yields usable values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}
