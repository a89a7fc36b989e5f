package frame

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/disintegration/imaging"
)

// Load failure taxonomy. All loader errors wrap one of these sentinels so
// callers can branch on the class while keeping the path context.
var (
	ErrNotFound          = errors.New("media not found")
	ErrUnsupportedFormat = errors.New("unsupported media format")
	ErrEmptyCollection   = errors.New("no images found in collection directory")
)

// DefaultFrameDuration is used for sources without authored timing
// (static images, image collections). The value only matters in that it
// must be positive; a single-frame source never advances.
const DefaultFrameDuration = 2 * time.Second

// FallbackGIFFrameDuration substitutes for animated frames whose metadata
// omits a display duration.
const FallbackGIFFrameDuration = 100 * time.Millisecond

// FrameSet is the pre-decoded, fixed-size frame sequence for a background.
// Frames are exactly output-sized RGBA and immutable after construction.
//
// For Live sets (window capture) Frames holds only the black placeholder;
// actual pixels come from the capture source on each poll.
type FrameSet struct {
	Frames    []*image.RGBA
	Durations []time.Duration // len 1, or len(Frames) when Animated
	Animated  bool
	Live      bool
}

// FrameCount returns the number of materialized frames.
func (fs *FrameSet) FrameCount() int { return len(fs.Frames) }

// DurationAt returns the display duration of frame i, falling back to the
// shared duration for sets with a single authored value.
func (fs *FrameSet) DurationAt(i int) time.Duration {
	if fs.Animated && i < len(fs.Durations) {
		return fs.Durations[i]
	}
	return fs.Durations[0]
}

// blackFrame allocates an opaque black RGBA buffer of the given size.
func blackFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)
	return img
}

// resizeToOutput resizes src to exactly w x h with a Lanczos filter and
// forces RGBA, matching the display's fixed buffer contract.
func resizeToOutput(src image.Image, w, h int) *image.RGBA {
	scaled := imaging.Resize(src, w, h, imaging.Lanczos)
	return toRGBA(scaled)
}

// toRGBA converts any image into an *image.RGBA with zero-origin bounds.
func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)
	return out
}
