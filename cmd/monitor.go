// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/DpunktS/seplos-v3-sniffer/pkg/seplos"
)

var (
	updateIntervalMs int
	linkTimeoutMs    int
	monStatsInterval int
	sinkName         string
	sinkOutput       string
	logLevel         string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the sniffer pipeline and publish decoded metrics",
	Long: `Continuously decode bus frames and publish metrics to a sink.

The pipeline is: bytes -> synchronizer -> CRC validation -> decoder ->
update gate -> sink. The update gate suppresses re-emission of a key within
the configured minimum interval, throttling sink writes when the bus delivers
frames faster than any consumer needs.

Frames from the bus master (device index 0) drive a link-alive signal; the
sink is told the link is dead when the master stays silent past the timeout.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().IntVar(&updateIntervalMs, "interval", 0, "Minimum interval between updates per metric (ms, 0 = config default)")
	monitorCmd.Flags().IntVar(&linkTimeoutMs, "link-timeout", 0, "Link-alive timeout (ms, 0 = config default)")
	monitorCmd.Flags().IntVar(&monStatsInterval, "stats-interval", 0, "Statistics log interval (seconds, 0 = config default)")
	monitorCmd.Flags().StringVar(&sinkName, "sink", "", "Metric sink: console or jsonl")
	monitorCmd.Flags().StringVar(&sinkOutput, "output", "", "Output file for the jsonl sink")
	monitorCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
}

// newLogger builds the monitor's console logger
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
		Level(lvl).
		With().Timestamp().Logger()
}

// mergeMonitorFlags overlays set flags onto the config
func mergeMonitorFlags(cfg *Config) {
	if updateIntervalMs > 0 {
		cfg.Monitor.UpdateIntervalMs = updateIntervalMs
	}
	if linkTimeoutMs > 0 {
		cfg.Monitor.LinkTimeoutMs = linkTimeoutMs
	}
	if monStatsInterval > 0 {
		cfg.Monitor.StatsIntervalS = monStatsInterval
	}
	if sinkName != "" {
		cfg.Monitor.Sink = sinkName
	}
	if sinkOutput != "" {
		cfg.Monitor.Output = sinkOutput
	}
	if logLevel != "" {
		cfg.Monitor.LogLevel = logLevel
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	mergeMonitorFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	applyConnectionConfig(cfg)

	logger := newLogger(cfg.Monitor.LogLevel)

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	sink, err := newSink(cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	logger.Info().Str("connection", connInfo).
		Dur("update_interval", cfg.UpdateInterval()).
		Dur("link_timeout", cfg.LinkTimeout()).
		Str("sink", cfg.Monitor.Sink).
		Msg("monitor started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sync := seplos.NewSynchronizer()
	gate := seplos.NewGate(cfg.UpdateInterval())
	stats := seplos.NewStatistics()

	// Reader goroutine: chunks arrive in order on the channel, so the
	// synchronizer's buffer is only ever touched from the select loop.
	chunks := make(chan []byte, 10)
	go func() {
		defer close(chunks)
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					logger.Info().Msg("connection closed")
					return
				}
				if ctx.Err() != nil {
					return
				}
				logger.Warn().Err(err).Msg("read error")
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case chunks <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	linkAlive := false
	var lastMaster time.Time

	linkTicker := time.NewTicker(cfg.LinkTimeout() / 2)
	defer linkTicker.Stop()
	statsTicker := time.NewTicker(time.Duration(cfg.Monitor.StatsIntervalS) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Drop any stale partial frame so a restart never merges bytes
			// across the gap.
			sync.Reset()
			logger.Info().Msg("monitor stopped")
			return nil

		case data, ok := <-chunks:
			if !ok {
				sync.Reset()
				return nil
			}
			crcBefore := sync.CRCErrors()
			frames := sync.Feed(data)
			if n := sync.CRCErrors() - crcBefore; n > 0 {
				logger.Debug().Uint64("count", n).Msg("frame discarded: CRC mismatch")
			}

			for _, frame := range frames {
				stats.RecordFrame(frame)

				if frame.IsMaster() {
					lastMaster = frame.Timestamp()
					if !linkAlive {
						linkAlive = true
						logger.Info().Msg("bus master detected, link alive")
						if err := sink.SetLinkAlive(true); err != nil {
							logger.Warn().Err(err).Msg("sink link update failed")
						}
					}
				}

				metrics := seplos.Decode(frame)
				now := time.Now()
				batch := metrics[:0]
				for _, m := range metrics {
					if gate.ShouldEmit(m.Key(), now) {
						batch = append(batch, m)
					}
				}
				if len(batch) == 0 {
					continue
				}
				if err := sink.Publish(batch); err != nil {
					logger.Error().Err(err).Msg("sink publish failed")
				}
				logger.Debug().
					Int("device", frame.DeviceIndex()).
					Str("pack", cfg.PackName(frame.DeviceIndex())).
					Str("subtype", seplos.SubtypeName(frame.Subtype())).
					Int("metrics", len(batch)).
					Msg("frame published")
			}

		case <-linkTicker.C:
			if linkAlive && time.Since(lastMaster) > cfg.LinkTimeout() {
				linkAlive = false
				logger.Warn().Dur("silence", time.Since(lastMaster)).Msg("bus master silent, link dead")
				if err := sink.SetLinkAlive(false); err != nil {
					logger.Warn().Err(err).Msg("sink link update failed")
				}
			}

		case <-statsTicker.C:
			stats.RecordFramer(sync)
			stats.CalculateRates()
			logger.Info().
				Uint64("frames", stats.ValidFrames).
				Uint64("crc_errors", stats.CRCErrors).
				Uint64("resync_bytes", stats.DroppedBytes).
				Int("active_packs", stats.ActivePacks()).
				Float64("frame_rate", stats.FrameRate).
				Msg("statistics")
		}
	}
}
