package frame

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/soocke/lcdframe-go/config"
	"github.com/soocke/lcdframe-go/domain/video"
)

// collection extensions, matched case-insensitively.
var collectionExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// Load materializes the FrameSet for the configured background. Frames are
// decoded eagerly and resized to the output dimensions; outputs are small
// enough that memory footprint is not a concern.
func Load(cfg *config.DisplayConfig, dec video.Decoder, logger *slog.Logger) (*FrameSet, error) {
	switch cfg.BackgroundKind {
	case config.KindStaticImage:
		return loadStaticImage(cfg.BackgroundPath, cfg.OutputWidth, cfg.OutputHeight)
	case config.KindAnimatedImage:
		return loadAnimatedImage(cfg.BackgroundPath, cfg.OutputWidth, cfg.OutputHeight, logger)
	case config.KindVideo:
		return loadVideo(cfg.BackgroundPath, cfg.OutputWidth, cfg.OutputHeight, dec, logger)
	case config.KindImageCollection:
		return loadImageCollection(cfg.BackgroundPath, cfg.OutputWidth, cfg.OutputHeight, logger)
	case config.KindWindowCapture:
		return loadWindowCapturePlaceholder(cfg), nil
	default:
		return nil, fmt.Errorf("%w: background kind %q", ErrUnsupportedFormat, cfg.BackgroundKind)
	}
}

func loadStaticImage(path string, w, h int) (*FrameSet, error) {
	img, err := decodeImageFile(path)
	if err != nil {
		return nil, err
	}
	return &FrameSet{
		Frames:    []*image.RGBA{resizeToOutput(img, w, h)},
		Durations: []time.Duration{DefaultFrameDuration},
	}, nil
}

// loadAnimatedImage decodes every GIF frame with its authored duration.
// Frames are coalesced over the logical canvas so partial-update GIFs
// render whole pictures, then resized independently.
func loadAnimatedImage(path string, w, h int, logger *slog.Logger) (*FrameSet, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode gif %s: %v", ErrUnsupportedFormat, path, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("%w: gif %s has no frames", ErrUnsupportedFormat, path)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, g.Config.Width, g.Config.Height))
	set := &FrameSet{Animated: true}
	for i, pal := range g.Image {
		draw.Draw(canvas, pal.Bounds(), pal, pal.Bounds().Min, draw.Over)
		set.Frames = append(set.Frames, resizeToOutput(canvas, w, h))

		d := gifFrameDuration(g.Delay, i)
		if d <= 0 {
			logger.Warn("frame.gif_duration_missing", "path", path, "frame", i, "fallback", FallbackGIFFrameDuration)
			d = FallbackGIFFrameDuration
		}
		set.Durations = append(set.Durations, d)

		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, pal.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}
	logger.Info("frame.gif_loaded", "path", path, "frames", set.FrameCount())
	return set, nil
}

// gifFrameDuration converts the authored delay (hundredths of a second)
// for frame i; zero when the metadata omits it.
func gifFrameDuration(delays []int, i int) time.Duration {
	if i >= len(delays) {
		return 0
	}
	return time.Duration(delays[i]) * 10 * time.Millisecond
}

// loadVideo decodes the file through the optional backend. A missing
// backend or an extension outside the supported set is not fatal: the
// path is decoded as a still image instead, so the display keeps showing
// something rather than failing the whole slot.
func loadVideo(path string, w, h int, dec video.Decoder, logger *slog.Logger) (*FrameSet, error) {
	if dec == nil || !dec.Available() {
		logger.Warn("frame.video_backend_unavailable", "path", path, "fallback", "static_image")
		return loadStaticImage(path, w, h)
	}
	if !video.SupportedExtension(path) {
		logger.Warn("frame.video_unsupported_extension", "path", path, "fallback", "static_image")
		return loadStaticImage(path, w, h)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	clip, err := dec.Decode(path, w, h)
	if err != nil {
		return nil, fmt.Errorf("decode video %s: %w", path, err)
	}
	fps := clip.FPS
	if fps <= 0 {
		fps = 30 // container did not report a rate
	}
	duration := time.Duration(float64(time.Second) / fps)
	logger.Info("frame.video_loaded",
		"path", filepath.Base(path),
		"frames", len(clip.Frames),
		"fps", fps,
		"frame_duration", duration,
	)
	return &FrameSet{
		Frames:    clip.Frames,
		Durations: []time.Duration{duration},
	}, nil
}

// loadImageCollection lists image files directly inside the directory
// (non-recursive) in lexicographic order so the cycle is reproducible.
func loadImageCollection(dir string, w, h int, logger *slog.Logger) (*FrameSet, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if collectionExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCollection, dir)
	}

	set := &FrameSet{Durations: []time.Duration{DefaultFrameDuration}}
	for _, p := range paths {
		img, err := decodeImageFile(p)
		if err != nil {
			return nil, err
		}
		set.Frames = append(set.Frames, resizeToOutput(img, w, h))
	}
	logger.Info("frame.collection_loaded", "dir", dir, "images", set.FrameCount())
	return set, nil
}

// loadWindowCapturePlaceholder builds the Live sentinel set: one opaque
// black frame served whenever the target window is unavailable.
func loadWindowCapturePlaceholder(cfg *config.DisplayConfig) *FrameSet {
	return &FrameSet{
		Frames:    []*image.RGBA{blackFrame(cfg.OutputWidth, cfg.OutputHeight)},
		Durations: []time.Duration{time.Duration(float64(time.Second) / float64(cfg.CaptureFPS))},
		Live:      true,
	}
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnsupportedFormat, path, err)
	}
	return img, nil
}
