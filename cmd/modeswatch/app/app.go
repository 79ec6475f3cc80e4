package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/airwave-labs/modeswatch/internal/modes"
	"github.com/airwave-labs/modeswatch/internal/sdr"
	"github.com/airwave-labs/modeswatch/internal/sdr/rtl"
)

const (
	defaultQueueCapacity = 4096
	defaultStatsInterval = 30 * time.Second
)

// Run wires the capture device, the demodulator and a run-statistics
// printer together and blocks until ctx is cancelled or the capture
// process exits.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	handler, err := rtl.New(&config.Device)
	if err != nil {
		return fmt.Errorf("creating RTL-SDR device: %w", err)
	}

	capture := sdr.NewCapture(handler, sdr.WithLogger(logger))

	queueCapacity := config.Settings.QueueCapacity
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueCapacity
	}
	queue := modes.NewSampleFIFO(queueCapacity)

	trust := modes.NewTrustFilter(config.Demodulator.ICAOConfidenceLevel, config.Demodulator.Timeout())

	stats := newRunStats()
	onFrame := func(frame modes.RawFrame) {
		stats.recordFrame()
		logger.Debug("frame emitted", slog.String("frame", frame.String()))
	}

	demodulator := modes.NewDemodulator(trust, onFrame, modes.WithLogger(logger))

	stopped, err := capture.Start(ctx, queue)
	if err != nil {
		return fmt.Errorf("starting capture: %w", err)
	}

	if err = demodulator.StartAsync(ctx, queue); err != nil {
		return fmt.Errorf("starting demodulator: %w", err)
	}

	statsInterval := defaultStatsInterval
	if config.Settings.StatsInterval != "" {
		if d, parseErr := time.ParseDuration(config.Settings.StatsInterval); parseErr == nil && d > 0 {
			statsInterval = d
		}
	}

	go reportStats(ctx, demodulator, stats, statsInterval, logger)

	var captureErr error
	select {
	case <-ctx.Done():
	case captureErr = <-stopped:
	}

	demodulator.Stop()
	capture.Stop()

	logger.Info(fmt.Sprintf("run complete: %s", stats.summary(demodulator.Stats())))

	return captureErr
}

// runStats accumulates the counters a real operator needs to know the
// pipeline is alive, without implying per-frame logging. frames is
// written from the demodulator worker goroutine and read from the
// stats-reporting goroutine, so it is an atomic counter rather than a
// plain field.
type runStats struct {
	started time.Time
	frames  atomic.Uint64
}

func newRunStats() *runStats {
	return &runStats{started: time.Now()}
}

func (s *runStats) recordFrame() {
	s.frames.Add(1)
}

func (s *runStats) summary(pipeline modes.Stats) string {
	return fmt.Sprintf(
		"running since %s, %s frames, %s trusted ICAOs, %s candidates",
		humanize.Time(s.started),
		humanize.Comma(int64(s.frames.Load())),
		humanize.Comma(int64(pipeline.Trusted)),
		humanize.Comma(int64(pipeline.Candidate)),
	)
}

func reportStats(ctx context.Context, d *modes.Demodulator, stats *runStats, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info(stats.summary(d.Stats()))
		}
	}
}
