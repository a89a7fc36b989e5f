// Package frame is the frame production and scheduling engine: it turns
// a declarative display configuration into a correctly-timed sequence of
// fixed-size RGBA buffers, while telemetry refreshes on its own cadence
// in the background.
package frame

import (
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soocke/lcdframe-go/config"
	"github.com/soocke/lcdframe-go/domain/capture"
	"github.com/soocke/lcdframe-go/domain/telemetry"
	"github.com/soocke/lcdframe-go/domain/video"
)

// Manager composes the loader, scheduler, capture source and telemetry
// refresher behind the two operations the device output loop needs:
// CurrentFrame and CurrentTelemetry.
//
// CurrentFrame is driven by a single polling goroutine; telemetry runs
// on its own background goroutine and is the only state both sides
// touch, published via atomic whole-snapshot swaps.
type Manager struct {
	cfg    *config.DisplayConfig
	logger *slog.Logger

	set       *FrameSet
	scheduler *Scheduler
	source    CaptureSource        // nil unless window capture
	refresher *telemetry.Refresher // nil when no overlays configured

	cleaned atomic.Bool
}

// NewManager validates the configuration and eagerly materializes all
// frame state. A window-capture config with no usable platform backend,
// a missing media path or an empty collection directory abort
// construction; the caller must not proceed with a half-built manager.
func NewManager(cfg *config.DisplayConfig, logger *slog.Logger) (*Manager, error) {
	var source CaptureSource
	if cfg.BackgroundKind == config.KindWindowCapture {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		src, err := capture.NewSource(cfg.WindowTitle, cfg.OutputWidth, cfg.OutputHeight, cfg.ScaleFactor, logger)
		if err != nil {
			return nil, fmt.Errorf("window capture %q: %w", cfg.WindowTitle, err)
		}
		source = src
	}
	return NewManagerWithSource(cfg, logger, source)
}

// NewManagerWithSource builds a manager over an externally supplied
// capture source, which must be non-nil iff the configured kind is
// window capture. It is the seam for alternative capture
// implementations and for tests.
func NewManagerWithSource(cfg *config.DisplayConfig, logger *slog.Logger, source CaptureSource) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if (cfg.BackgroundKind == config.KindWindowCapture) != (source != nil) {
		return nil, fmt.Errorf("background_kind: %q requires a capture source", cfg.BackgroundKind)
	}

	set, err := Load(cfg, video.NewDecoder(logger), logger)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:       cfg,
		logger:    logger,
		set:       set,
		scheduler: NewScheduler(set, source, logger),
		source:    source,
	}

	if len(cfg.EnabledMetrics()) > 0 {
		m.refresher = telemetry.NewRefresher(telemetry.DefaultRefreshInterval, logger,
			telemetry.NewCPUCollector(logger),
			telemetry.NewGPUCollector(logger),
		)
		m.refresher.Start()
	}

	logger.Info("frame.manager_ready",
		"kind", cfg.BackgroundKind,
		"frames", set.FrameCount(),
		"live", set.Live,
		"telemetry", m.refresher != nil,
	)
	return m, nil
}

// CurrentFrame returns the frame to display right now. It never fails
// once construction succeeded; the worst case for live sources is the
// black placeholder.
func (m *Manager) CurrentFrame() *image.RGBA {
	return m.scheduler.Poll()
}

// CurrentTelemetry returns the last published snapshot, or the empty
// no-value snapshot when telemetry was never configured.
func (m *Manager) CurrentTelemetry() telemetry.Snapshot {
	if m.refresher == nil {
		return telemetry.EmptySnapshot()
	}
	return m.refresher.Snapshot()
}

// FrameInfo reports the current frame index and its effective display
// duration.
func (m *Manager) FrameInfo() (index int, duration time.Duration) {
	return m.scheduler.FrameIndex(), m.scheduler.FrameDuration()
}

// Cleanup stops the telemetry task (bounded join) and then releases
// capture handles, in that order: capture backends may hold OS handles
// that must not outlive the manager. Idempotent.
func (m *Manager) Cleanup() {
	if !m.cleaned.CompareAndSwap(false, true) {
		return
	}
	if m.refresher != nil {
		m.refresher.Stop()
	}
	if m.source != nil {
		if err := m.source.Close(); err != nil {
			m.logger.Warn("capture.close_failed", "error", err)
		}
	}
	m.logger.Debug("frame.manager_cleaned")
}
