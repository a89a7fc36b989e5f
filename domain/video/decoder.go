// Package video provides the optional video decode backend used when a
// display background is configured with a video file. Availability is
// negotiated once at startup; when no backend was compiled in, callers
// fall back to treating the path as a still image.
package video

import (
	"errors"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
)

// ErrUnavailable is returned by Decode when no decode backend was built
// into the binary.
var ErrUnavailable = errors.New("video decode backend unavailable")

// Clip is a fully decoded video: every frame eagerly scaled to the output
// size, plus the native frame rate reported by the container.
type Clip struct {
	Frames []*image.RGBA
	FPS    float64
}

// Decoder decodes a whole video file into output-sized RGBA frames.
type Decoder interface {
	// Available reports whether the backend can decode on this build.
	Available() bool
	// Decode reads every frame of the file at path, scaled to width x height.
	Decode(path string, width, height int) (*Clip, error)
}

// supported container/codec extensions, lower case.
var supportedExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mkv":  true,
	".mov":  true,
	".webm": true,
	".flv":  true,
	".wmv":  true,
	".m4v":  true,
}

// SupportedExtension reports whether the file extension is in the decode
// whitelist. Unsupported extensions are not fatal for callers; they fall
// back to still-image decoding.
func SupportedExtension(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// NewDecoder returns the backend compiled into this binary.
func NewDecoder(logger *slog.Logger) Decoder {
	return newPlatformDecoder(logger)
}
