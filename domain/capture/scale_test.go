package capture

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestScaleToOutput_Unscaled(t *testing.T) {
	src := uniformImage(800, 600, color.RGBA{200, 10, 10, 255})
	out := ScaleToOutput(src, 320, 240, 1.0)
	require.Equal(t, image.Rect(0, 0, 320, 240), out.Bounds())
	// fills the output exactly: corners carry source color, not padding
	assert.Equal(t, color.RGBA{200, 10, 10, 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{200, 10, 10, 255}, out.RGBAAt(319, 239))
}

func TestScaleToOutput_ZoomInCropsCenter(t *testing.T) {
	src := uniformImage(1280, 960, color.RGBA{0, 128, 0, 255})
	out := ScaleToOutput(src, 320, 240, 2.0)
	// pre-crop scaled size is 640x480, crop origin (160,120)
	require.Equal(t, image.Rect(0, 0, 320, 240), out.Bounds())
	assert.Equal(t, color.RGBA{0, 128, 0, 255}, out.RGBAAt(160, 120))
}

func TestScaleToOutput_ZoomOutPadsBlack(t *testing.T) {
	src := uniformImage(640, 480, color.RGBA{255, 255, 255, 255})
	out := ScaleToOutput(src, 320, 240, 0.5)
	require.Equal(t, image.Rect(0, 0, 320, 240), out.Bounds())

	black := color.RGBA{0, 0, 0, 255}
	white := color.RGBA{255, 255, 255, 255}

	// pre-pad scaled size is 160x120, pasted at (80,60)
	assert.Equal(t, white, out.RGBAAt(80, 60))
	assert.Equal(t, white, out.RGBAAt(239, 179))
	assert.Equal(t, white, out.RGBAAt(160, 120))

	// every pixel outside the pasted region is opaque black
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			inside := x >= 80 && x < 240 && y >= 60 && y < 180
			if inside {
				continue
			}
			if out.RGBAAt(x, y) != black {
				t.Fatalf("pixel (%d,%d) = %v, want opaque black", x, y, out.RGBAAt(x, y))
			}
		}
	}
}

func TestScaleToOutput_ForcesRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 100, 100))
	out := ScaleToOutput(gray, 320, 240, 1.0)
	require.Equal(t, image.Rect(0, 0, 320, 240), out.Bounds())
	assert.EqualValues(t, 255, out.RGBAAt(10, 10).A)
}
