package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RejectsBadFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DisplayConfig)
		wantSub string
	}{
		{"unknown kind", func(c *DisplayConfig) { c.BackgroundKind = "hologram" }, "background_kind"},
		{"missing path", func(c *DisplayConfig) { c.BackgroundPath = "" }, "background_path"},
		{"zero width", func(c *DisplayConfig) { c.OutputWidth = 0 }, "output_width"},
		{"negative height", func(c *DisplayConfig) { c.OutputHeight = -1 }, "output_height"},
		{"rotation out of range", func(c *DisplayConfig) { c.Rotation = 400 }, "rotation"},
		{"zero scale", func(c *DisplayConfig) { c.ScaleFactor = 0 }, "scale_factor"},
		{
			"capture without title",
			func(c *DisplayConfig) { c.BackgroundKind = KindWindowCapture; c.WindowTitle = "" },
			"window_title",
		},
		{
			"capture without fps",
			func(c *DisplayConfig) {
				c.BackgroundKind = KindWindowCapture
				c.WindowTitle = "iStripper"
				c.CaptureFPS = 0
			},
			"capture_fps",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.BackgroundPath = "bg.png"
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantSub)
		})
	}
}

func TestValidate_AcceptsWindowCapture(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BackgroundKind = KindWindowCapture
	cfg.WindowTitle = "iStripper"
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.OutputWidth)
	assert.Equal(t, 240, cfg.OutputHeight)
	assert.Equal(t, 1.0, cfg.ScaleFactor)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "display.json")
	cfg := DefaultConfig()
	cfg.BackgroundPath = "bg.gif"
	cfg.BackgroundKind = KindAnimatedImage
	cfg.Metrics = []MetricOverlay{{Name: "cpu_temperature", Label: "CPU", Enabled: true}}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.BackgroundPath, got.BackgroundPath)
	assert.Equal(t, KindAnimatedImage, got.BackgroundKind)
	require.Len(t, got.EnabledMetrics(), 1)
}

func TestEnabledMetrics_FiltersDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics = []MetricOverlay{
		{Name: "cpu_usage", Enabled: true},
		{Name: "gpu_usage", Enabled: false},
	}
	got := cfg.EnabledMetrics()
	require.Len(t, got, 1)
	assert.Equal(t, "cpu_usage", got[0].Name)
}
