package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/tevino/abool"

	"github.com/safing/banhammer/internal/audit"
	"github.com/safing/banhammer/internal/blocker"
	"github.com/safing/banhammer/internal/capture"
	"github.com/safing/banhammer/internal/cidrset"
	"github.com/safing/banhammer/internal/config"
	"github.com/safing/banhammer/internal/firewall"
	banhammerlog "github.com/safing/banhammer/internal/log"
	"github.com/safing/banhammer/internal/metrics"
	"github.com/safing/banhammer/internal/mgr"
	"github.com/safing/banhammer/internal/netutils"
	"github.com/safing/banhammer/internal/query"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the banhammer daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "/etc/banhammer/banhammer.yaml", "path to the configuration file")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		cfg = config.Default()
		fmt.Fprintf(os.Stderr, "warning: %s, using defaults\n", err)
	}

	banhammerlog.Setup(banhammerlog.ParseSeverity(cfg.Logging.Level), os.Stderr)
	logger := slog.Default()

	running := abool.NewBool(true)

	fw := firewall.New(firewall.Config{
		MaxPorts:             cfg.Firewall.MaxPorts,
		Timeout:              cfg.Firewall.Timeout,
		PurgeInterval:        cfg.Firewall.PurgeInterval,
		MaxPackets:           cfg.Firewall.MaxPackets,
		MaxPacketFrame:       cfg.Firewall.MaxPacketFrame,
		BanDurationMultiport: cfg.Firewall.BanDurationMultiport,
		BanDurationFlood:     cfg.Firewall.BanDurationFlood,
		BanDurationBlacklist: cfg.Firewall.BanDurationBlacklist,
	})

	if locals, err := netutils.LocalAddresses(); err != nil {
		logger.Warn("failed to enumerate local addresses", "error", err)
	} else {
		for _, addr := range locals {
			fw.Protect(addr)
		}
	}

	blacklist, exception := cidrset.New(), cidrset.New()
	if cfg.Lists.BlacklistFile != "" {
		if err := blacklist.LoadFile(cfg.Lists.BlacklistFile); err != nil {
			logger.Warn("failed to load blacklist file", "path", cfg.Lists.BlacklistFile, "error", err)
		}
	}
	if cfg.Lists.ExceptionFile != "" {
		if err := exception.LoadFile(cfg.Lists.ExceptionFile); err != nil {
			logger.Warn("failed to load exception file", "path", cfg.Lists.ExceptionFile, "error", err)
		}
	}
	fw.SetMatchers(blacklist, exception)

	var trail *audit.Trail
	if cfg.Audit.DatabasePath != "" {
		trail, err = audit.Open(cfg.Audit.DatabasePath)
		if err != nil {
			logger.Warn("failed to open audit database", "error", err)
		} else {
			defer trail.Close()
		}
	}
	var eventLog *audit.EventLog
	if cfg.Audit.LogPath != "" {
		eventLog = audit.NewEventLog(cfg.Audit.LogPath, cfg.Audit.MaxSizeMB, cfg.Audit.MaxBackups, cfg.Audit.MaxAgeDays)
		defer eventLog.Close()
	}
	metricSet := metrics.New()
	metricSet.RegisterGauges(
		func() float64 { return float64(fw.BanCount()) },
		func() float64 { return float64(fw.StatsCount()) },
	)

	fw.SetLogger(banhammerlog.MultiLogger{
		&audit.Recorder{Trail: trail, Log: eventLog, Logger: logger},
		metrics.EventLogger{Set: metricSet},
	})

	var block blocker.Blocker
	if liveBlocker, err := blocker.NewIPTablesBlocker(); err != nil {
		logger.Warn("failed to initialize iptables blocker, falling back to no-op", "error", err)
		block = blocker.NewNoop()
	} else {
		block = liveBlocker
	}
	defer block.Close()

	fw.SetCallbacks(
		func(addr uint32) {
			if err := block.Ban(addr); err != nil {
				logger.Error("failed to ban address", "error", err)
			}
		},
		func(addr uint32) {
			metricSet.ObserveUnban()
			if err := block.Unban(addr); err != nil {
				logger.Error("failed to unban address", "error", err)
			}
		},
	)

	watcher, err := config.NewListWatcher(logger)
	if err != nil {
		logger.Warn("failed to start list watcher", "error", err)
	} else {
		defer watcher.Close()
		_ = watcher.Watch(cfg.Lists.BlacklistFile, func() {
			if err := blacklist.LoadFile(cfg.Lists.BlacklistFile); err != nil {
				logger.Warn("failed to reload blacklist file", "error", err)
			}
		})
		_ = watcher.Watch(cfg.Lists.ExceptionFile, func() {
			if err := exception.LoadFile(cfg.Lists.ExceptionFile); err != nil {
				logger.Warn("failed to reload exception file", "error", err)
			}
		})
		go watcher.Run()
	}

	admin := metrics.NewServer(cfg.Metrics.ListenAddress, metricSet, blacklist, exception)
	go func() {
		if err := admin.ListenAndServe(); err != nil {
			logger.Error("admin API server failed", "error", err)
		}
	}()

	queryServer, err := query.Listen(cfg.Query.ListenAddress, fw, logger)
	if err != nil {
		logger.Warn("failed to start verification service", "error", err)
	} else {
		defer queryServer.Close()
		go func() {
			if err := queryServer.Serve(); err != nil {
				logger.Error("verification service failed", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	manager := mgr.New(ctx, "banhammer")

	src, err := capture.OpenLive(cfg.Interface)
	if err != nil {
		cancel()
		return fmt.Errorf("opening capture on %s: %w", cfg.Interface, err)
	}

	manager.Go("capture", func(w *mgr.WorkerCtx) error {
		for {
			select {
			case <-w.Done():
				return nil
			case pkt, ok := <-src.Packets():
				if !ok {
					return nil
				}
				if !running.IsSet() || !capture.ShouldObserve(pkt) {
					continue
				}
				metricSet.ObservePacket()
				fw.Observe(pkt.SrcAddr, pkt.SrcPort, time.Now())
			}
		}
	})

	manager.Repeat("purge", cfg.Firewall.PurgeInterval, func(w *mgr.WorkerCtx) error {
		fw.Purge(time.Now())
		return nil
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	running.UnSet()
	cancel()
	manager.WaitForWorkers(10 * time.Second)

	var result *multierror.Error
	if err := src.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := admin.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}

	fw.Shutdown()
	return result.ErrorOrNil()
}
