package capture

import (
	"image"
	"log/slog"
)

// Source is the live pull-based frame source for window-capture
// backgrounds. It has no pre-materialized frame list; every frame comes
// from a fresh platform grab, rescaled to the output size.
type Source struct {
	backend Backend
	title   string
	width   int
	height  int
	scale   float64
	logger  *slog.Logger
}

// NewSource selects a platform backend and binds it to the target window
// title. Fails with ErrNoBackend when the host has no usable capture
// capability.
func NewSource(title string, width, height int, scale float64, logger *slog.Logger) (*Source, error) {
	backend, err := SelectBackend(logger)
	if err != nil {
		return nil, err
	}
	return newSourceWithBackend(backend, title, width, height, scale, logger), nil
}

func newSourceWithBackend(backend Backend, title string, width, height int, scale float64, logger *slog.Logger) *Source {
	return &Source{
		backend: backend,
		title:   title,
		width:   width,
		height:  height,
		scale:   scale,
		logger:  logger,
	}
}

// Capture grabs the target window right now. ok=false means the window
// cannot currently be located or the grab failed transiently; both are
// expected conditions the caller substitutes a placeholder for, not
// faults.
func (s *Source) Capture() (*image.RGBA, bool) {
	rect, ok := s.backend.FindWindow(s.title)
	if !ok {
		s.logger.Debug("capture.window_not_found", "title", s.title)
		return nil, false
	}
	raw, err := s.backend.Grab(rect)
	if err != nil {
		s.logger.Debug("capture.grab_failed", "title", s.title, "error", err)
		return nil, false
	}
	return ScaleToOutput(raw, s.width, s.height, s.scale), true
}

// Close releases the underlying backend's platform handles.
func (s *Source) Close() error {
	return s.backend.Close()
}
