package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// BackgroundKind selects the content model driving the display background.
type BackgroundKind string

const (
	KindStaticImage     BackgroundKind = "static_image"
	KindAnimatedImage   BackgroundKind = "animated_image"
	KindVideo           BackgroundKind = "video"
	KindImageCollection BackgroundKind = "image_collection"
	KindWindowCapture   BackgroundKind = "window_capture"
)

// MetricOverlay describes one telemetry readout placed on the display.
// Rendering of the text is a downstream concern; the frame engine only
// needs the list to decide whether telemetry collection runs at all.
type MetricOverlay struct {
	Name     string `json:"name"` // e.g. "cpu_temperature"
	Label    string `json:"label"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	FontSize int    `json:"font_size"`
	Color    [4]int `json:"color"` // RGBA
	Format   string `json:"format"`
	Unit     string `json:"unit"`
	Enabled  bool   `json:"enabled"`
}

// TextOverlay describes a free-form text element (date, time).
type TextOverlay struct {
	Text     string `json:"text"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	FontSize int    `json:"font_size"`
	Color    [4]int `json:"color"`
	Enabled  bool   `json:"enabled"`
}

// DisplayConfig holds the full declarative configuration of a display slot.
// It is immutable for the lifetime of a frame.Manager built from it.
type DisplayConfig struct {
	Debug bool `json:"debug"`

	// Background content
	BackgroundPath string         `json:"background_path"`
	BackgroundKind BackgroundKind `json:"background_kind"`

	// Output geometry
	OutputWidth  int `json:"output_width"`
	OutputHeight int `json:"output_height"`

	// Display rotation in degrees, clockwise. Informational to the frame
	// engine; the device encoder applies it.
	Rotation int `json:"rotation"`

	// Content zoom (1.0 = unscaled, >1 crop in, <1 pad out).
	ScaleFactor float64 `json:"scale_factor"`

	// Window capture settings (KindWindowCapture only)
	WindowTitle string `json:"window_title"`
	CaptureFPS  int    `json:"capture_fps"`

	// Optional global font for overlay text
	GlobalFontPath string `json:"global_font_path"`

	// Optional foreground image composited downstream
	ForegroundImagePath string  `json:"foreground_image_path"`
	ForegroundX         int     `json:"foreground_x"`
	ForegroundY         int     `json:"foreground_y"`
	ForegroundAlpha     float64 `json:"foreground_alpha"`

	// Telemetry overlays; empty list disables telemetry collection
	Metrics []MetricOverlay `json:"metrics"`

	// Date/time overlays
	DateOverlay *TextOverlay `json:"date_overlay"`
	TimeOverlay *TextOverlay `json:"time_overlay"`
}

// DefaultConfig returns a DisplayConfig populated with standard defaults.
func DefaultConfig() *DisplayConfig {
	return &DisplayConfig{
		BackgroundKind:  KindStaticImage,
		OutputWidth:     320,
		OutputHeight:    240,
		Rotation:        0,
		ScaleFactor:     1.0,
		CaptureFPS:      30,
		ForegroundAlpha: 1.0,
	}
}

// Validate checks the configuration for errors that must abort construction.
// Errors name the offending field so misconfiguration is diagnosable.
func (c *DisplayConfig) Validate() error {
	switch c.BackgroundKind {
	case KindStaticImage, KindAnimatedImage, KindVideo, KindImageCollection, KindWindowCapture:
	default:
		return fmt.Errorf("background_kind: unknown kind %q", c.BackgroundKind)
	}
	if c.BackgroundKind != KindWindowCapture && c.BackgroundPath == "" {
		return fmt.Errorf("background_path: required for kind %q", c.BackgroundKind)
	}
	if c.OutputWidth <= 0 {
		return fmt.Errorf("output_width: must be positive, got %d", c.OutputWidth)
	}
	if c.OutputHeight <= 0 {
		return fmt.Errorf("output_height: must be positive, got %d", c.OutputHeight)
	}
	if c.Rotation < 0 || c.Rotation > 360 {
		return fmt.Errorf("rotation: must be within 0-360, got %d", c.Rotation)
	}
	if c.ScaleFactor <= 0 {
		return fmt.Errorf("scale_factor: must be positive, got %v", c.ScaleFactor)
	}
	if c.BackgroundKind == KindWindowCapture {
		if c.WindowTitle == "" {
			return fmt.Errorf("window_title: required for kind %q", KindWindowCapture)
		}
		if c.CaptureFPS <= 0 {
			return fmt.Errorf("capture_fps: must be positive, got %d", c.CaptureFPS)
		}
	}
	if c.ForegroundAlpha < 0 || c.ForegroundAlpha > 1 {
		return fmt.Errorf("foreground_alpha: must be within 0-1, got %v", c.ForegroundAlpha)
	}
	return nil
}

// EnabledMetrics returns the overlays that are switched on.
func (c *DisplayConfig) EnabledMetrics() []MetricOverlay {
	var out []MetricOverlay
	for _, m := range c.Metrics {
		if m.Enabled {
			out = append(out, m)
		}
	}
	return out
}

// Load reads configuration from the given JSON file path. A missing file
// yields DefaultConfig(). Validation errors are returned alongside the
// decoded config so callers can report the offending field.
func Load(path string) (*DisplayConfig, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Save writes the configuration to the given path in JSON format.
func (c *DisplayConfig) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
