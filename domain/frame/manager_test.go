package frame

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/lcdframe-go/config"
)

func TestManager_StaticImageScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.png")
	writePNG(t, path, 1024, 768, color.RGBA{40, 40, 200, 255})

	cfg := baseConfig(config.KindStaticImage, path)
	m, err := NewManagerWithSource(cfg, testLogger(), nil)
	require.NoError(t, err)
	defer m.Cleanup()

	first := m.CurrentFrame()
	require.Equal(t, image.Rect(0, 0, 320, 240), first.Bounds())
	for i := 0; i < 50; i++ {
		img := m.CurrentFrame()
		assert.Same(t, first, img, "static backgrounds serve the same buffer forever")
		idx, dur := m.FrameInfo()
		assert.Zero(t, idx)
		assert.Equal(t, DefaultFrameDuration, dur)
	}
}

type missingWindowSource struct{ closed bool }

func (s *missingWindowSource) Capture() (*image.RGBA, bool) { return nil, false }
func (s *missingWindowSource) Close() error                 { s.closed = true; return nil }

func TestManager_WindowCaptureAlwaysMissingServesBlack(t *testing.T) {
	cfg := baseConfig(config.KindWindowCapture, "")
	cfg.WindowTitle = "Nonexistent"
	cfg.CaptureFPS = 30

	src := &missingWindowSource{}
	m, err := NewManagerWithSource(cfg, testLogger(), src)
	require.NoError(t, err)
	defer m.Cleanup()

	black := color.RGBA{0, 0, 0, 255}
	for i := 0; i < 20; i++ {
		img := m.CurrentFrame()
		require.Equal(t, image.Rect(0, 0, 320, 240), img.Bounds())
		assert.Equal(t, black, img.RGBAAt(0, 0))
		assert.Equal(t, black, img.RGBAAt(319, 239))
	}
}

func TestManager_WindowCaptureRequiresSource(t *testing.T) {
	cfg := baseConfig(config.KindWindowCapture, "")
	cfg.WindowTitle = "Target"
	_, err := NewManagerWithSource(cfg, testLogger(), nil)
	require.Error(t, err)
}

func TestManager_RejectsInvalidConfig(t *testing.T) {
	cfg := baseConfig(config.KindStaticImage, "")
	_, err := NewManagerWithSource(cfg, testLogger(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "background_path")
}

func TestManager_TelemetryWithoutOverlays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.png")
	writePNG(t, path, 64, 64, color.RGBA{A: 255})

	m, err := NewManagerWithSource(baseConfig(config.KindStaticImage, path), testLogger(), nil)
	require.NoError(t, err)
	defer m.Cleanup()

	snap := m.CurrentTelemetry()
	require.NotNil(t, snap)
	for key, v := range snap {
		assert.False(t, v.Present(), "metric %s must be an explicit no-value", key)
	}
}

func TestManager_CleanupIsIdempotent(t *testing.T) {
	cfg := baseConfig(config.KindWindowCapture, "")
	cfg.WindowTitle = "Target"
	src := &missingWindowSource{}
	m, err := NewManagerWithSource(cfg, testLogger(), src)
	require.NoError(t, err)

	m.Cleanup()
	require.True(t, src.closed)
	m.Cleanup() // second call must be a no-op
}
