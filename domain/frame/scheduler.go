package frame

import (
	"image"
	"log/slog"
	"time"
)

// CaptureSource is the live pixel source backing window-capture frame
// sets. Capture returns ok=false when the target window cannot currently
// be located; that is an expected condition, not an error.
type CaptureSource interface {
	Capture() (*image.RGBA, bool)
	Close() error
}

// Scheduler decides on each poll whether a materialized set advances to
// its next frame, or whether a live set is due for a fresh capture, and
// exposes the currently active frame. It is driven by a single polling
// goroutine and needs no locking.
type Scheduler struct {
	set    *FrameSet
	source CaptureSource // nil unless set.Live
	logger *slog.Logger
	now    func() time.Time

	// materialized state
	index       int
	lastAdvance time.Time
	duration    time.Duration

	// live state
	captureEvery time.Duration
	lastCapture  time.Time
	lastBuffer   *image.RGBA // last good capture, carried forward between due windows
}

// NewScheduler builds a scheduler over the given set. source must be
// non-nil iff the set is live.
func NewScheduler(set *FrameSet, source CaptureSource, logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		set:      set,
		source:   source,
		logger:   logger,
		now:      time.Now,
		duration: set.DurationAt(0),
	}
	if set.Live {
		s.captureEvery = set.Durations[0]
	}
	s.lastAdvance = s.now()
	s.lastCapture = s.lastAdvance
	return s
}

// Poll returns the frame that should be displayed right now.
func (s *Scheduler) Poll() *image.RGBA {
	if s.set.Live {
		return s.pollLive()
	}
	return s.pollMaterialized()
}

func (s *Scheduler) pollMaterialized() *image.RGBA {
	t := s.now()
	if t.Sub(s.lastAdvance) >= s.duration {
		s.lastAdvance = t
		prev := s.index
		s.index = (s.index + 1) % s.set.FrameCount()
		if prev > 0 && s.index == 0 {
			s.logger.Debug("frame.loop_restart", "frames", s.set.FrameCount())
		}
		if s.set.Animated {
			// the newly entered frame's authored duration governs how
			// long it stays up
			s.duration = s.set.Durations[s.index]
		}
	}
	return s.set.Frames[s.index]
}

// pollLive paces captures at the configured rate, but once the window
// ends without one it still attempts a refresh rather than perpetually
// serving a stale buffer. A due-window miss shows the black placeholder
// so absence of the target stays visually obvious; an off-window miss
// falls back to the last good capture first.
func (s *Scheduler) pollLive() *image.RGBA {
	t := s.now()
	if t.Sub(s.lastCapture) >= s.captureEvery {
		s.lastCapture = t
		if img, ok := s.source.Capture(); ok {
			s.lastBuffer = img
			return img
		}
		s.logger.Debug("capture.miss", "fallback", "placeholder")
		return s.set.Frames[0]
	}
	if img, ok := s.source.Capture(); ok {
		s.lastBuffer = img
		return img
	}
	if s.lastBuffer != nil {
		return s.lastBuffer
	}
	return s.set.Frames[0]
}

// FrameIndex returns the current 0-based frame index. Live sets always
// report 0.
func (s *Scheduler) FrameIndex() int { return s.index }

// FrameDuration returns the effective display duration of the current
// frame.
func (s *Scheduler) FrameDuration() time.Duration {
	if s.set.Live {
		return s.captureEvery
	}
	return s.duration
}
