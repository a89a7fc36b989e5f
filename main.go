package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soocke/lcdframe-go/config"
	"github.com/soocke/lcdframe-go/debug"
	"github.com/soocke/lcdframe-go/domain/frame"
	"github.com/soocke/lcdframe-go/domain/telemetry"
)

// pollInterval is the demo output cadence. The real device loop polls at
// whatever rate the panel's USB endpoint sustains.
const pollInterval = 33 * time.Millisecond

func main() {
	cfgPath := flag.String("config", "display.json", "path to the display configuration JSON")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("config load failed", "path", *cfgPath, "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level)

	mgr, err := frame.NewManager(cfg, logger)
	if err != nil {
		logger.Error("frame manager init failed", "error", err)
		os.Exit(1)
	}
	defer mgr.Cleanup()

	if cfg.Debug {
		debug.StartGoroutineLogger(2*time.Second, logger)
		debug.StartMemLogger(2*time.Second, logger)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Stand-in for the device output loop: poll frames at the output
	// cadence and periodically report what would be sent to the panel.
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	statsEvery := time.NewTicker(5 * time.Second)
	defer statsEvery.Stop()

	var polls uint64
	for {
		select {
		case <-ticker.C:
			img := mgr.CurrentFrame()
			polls++
			select {
			case <-statsEvery.C:
				idx, dur := mgr.FrameInfo()
				snap := mgr.CurrentTelemetry()
				attrs := []any{
					"polls", polls,
					"index", idx,
					"frame_duration", dur,
					"bounds", img.Bounds().String(),
				}
				if v := snap[telemetry.KeyCPUUsage]; v.Num != nil {
					attrs = append(attrs, "cpu_usage", *v.Num)
				}
				logger.Info("frame.stats", attrs...)
			default:
			}
		case <-sigCh:
			logger.Info("shutting down")
			return
		}
	}
}
