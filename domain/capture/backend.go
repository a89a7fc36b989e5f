// Package capture implements the live window-capture source: locating a
// target window by title on the current platform, grabbing its pixels on
// demand and mapping them onto the fixed output size.
//
// Platform capabilities are negotiated once at startup through a small
// backend registry; downstream code branches on the selected backend
// instead of discovering failures per poll.
package capture

import (
	"errors"
	"image"
	"log/slog"
)

// ErrNoBackend indicates that no capture backend is usable on this host.
// For window-capture configurations this is fatal at construction, never
// a per-poll condition.
var ErrNoBackend = errors.New("no window capture backend available")

// Backend is one platform capture strategy. At most one backend needs to
// be usable per platform.
type Backend interface {
	// Name identifies the backend in logs ("gdi", "x11-shm", ...).
	Name() string
	// Available reports whether the backend can operate on this host.
	// It is queried once, at registry selection time.
	Available() bool
	// FindWindow locates a window whose title contains the given
	// substring, case-insensitively, and returns its on-screen
	// rectangle. ok=false when no such window exists right now.
	FindWindow(titleSubstring string) (rect image.Rectangle, ok bool)
	// Grab captures the raw pixels of the given screen rectangle.
	Grab(rect image.Rectangle) (*image.RGBA, error)
	// Close releases any held platform handles.
	Close() error
}

// SelectBackend probes the platform's backends in preference order and
// returns the first usable one.
func SelectBackend(logger *slog.Logger) (Backend, error) {
	for _, b := range platformBackends(logger) {
		if b.Available() {
			logger.Info("capture.backend_selected", "backend", b.Name())
			return b, nil
		}
		logger.Debug("capture.backend_unavailable", "backend", b.Name())
	}
	return nil, ErrNoBackend
}
