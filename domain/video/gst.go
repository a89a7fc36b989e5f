//go:build gst

package video

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

var gstInitOnce sync.Once

// gstDecoder decodes files through a GStreamer pipeline:
//
//	filesrc ! decodebin ! videoconvert ! videoscale ! capsfilter(RGBA,WxH) ! appsink
//
// Frames are pulled synchronously from the appsink until EOS. Audio pads
// are left unlinked, so playback is silent by construction.
type gstDecoder struct {
	logger *slog.Logger
}

func newPlatformDecoder(logger *slog.Logger) Decoder {
	gstInitOnce.Do(func() { gst.Init(nil) })
	return &gstDecoder{logger: logger}
}

func (d *gstDecoder) Available() bool { return true }

func (d *gstDecoder) Decode(path string, width, height int) (*Clip, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("video %s: %w", path, err)
	}

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("video: create pipeline: %w", err)
	}
	defer pipeline.SetState(gst.StateNull)

	filesrc, err := gst.NewElement("filesrc")
	if err != nil {
		return nil, fmt.Errorf("video: create filesrc: %w", err)
	}
	if err := filesrc.Set("location", path); err != nil {
		return nil, fmt.Errorf("video: set location: %w", err)
	}
	decode, err := gst.NewElement("decodebin")
	if err != nil {
		return nil, fmt.Errorf("video: create decodebin: %w", err)
	}
	convert, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("video: create videoconvert: %w", err)
	}
	scale, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, fmt.Errorf("video: create videoscale: %w", err)
	}
	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("video: create capsfilter: %w", err)
	}
	caps := gst.NewCapsFromString(fmt.Sprintf(
		"video/x-raw,format=RGBA,width=%d,height=%d", width, height))
	if err := capsfilter.Set("caps", caps); err != nil {
		return nil, fmt.Errorf("video: set caps: %w", err)
	}
	sink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("video: create appsink: %w", err)
	}
	sink.SetProperty("sync", false)

	if err := pipeline.AddMany(filesrc, decode, convert, scale, capsfilter, sink.Element); err != nil {
		return nil, fmt.Errorf("video: assemble pipeline: %w", err)
	}
	if err := filesrc.Link(decode); err != nil {
		return nil, fmt.Errorf("video: link filesrc: %w", err)
	}
	if err := gst.ElementLinkMany(convert, scale, capsfilter, sink.Element); err != nil {
		return nil, fmt.Errorf("video: link convert chain: %w", err)
	}

	// decodebin exposes pads only once the stream is parsed; link video
	// pads to the convert chain and ignore everything else (audio).
	decode.Connect("pad-added", func(el *gst.Element, pad *gst.Pad) {
		sinkPad := convert.GetStaticPad("sink")
		if sinkPad == nil || sinkPad.IsLinked() {
			return
		}
		if ret := pad.Link(sinkPad); ret != gst.PadLinkOK {
			d.logger.Debug("video.pad_link_skipped", "result", ret.String())
		}
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("video: start pipeline: %w", err)
	}

	clip := &Clip{}
	for {
		sample := sink.PullSample()
		if sample == nil {
			if sink.IsEOS() {
				break
			}
			return nil, fmt.Errorf("video %s: pipeline stalled before EOS", path)
		}
		if clip.FPS == 0 {
			clip.FPS = framerateFromCaps(sample.GetCaps())
		}
		buffer := sample.GetBuffer()
		if buffer == nil {
			continue
		}
		mapInfo := buffer.Map(gst.MapRead)
		data := mapInfo.Bytes()
		if len(data) >= width*height*4 {
			img := image.NewRGBA(image.Rect(0, 0, width, height))
			copy(img.Pix, data[:width*height*4])
			clip.Frames = append(clip.Frames, img)
		}
		buffer.Unmap()
	}

	if len(clip.Frames) == 0 {
		return nil, fmt.Errorf("video %s: no frames decoded", path)
	}
	d.logger.Info("video.decoded",
		"path", path,
		"frames", len(clip.Frames),
		"fps", clip.FPS,
	)
	return clip, nil
}

// framerateFromCaps reads the negotiated framerate fraction, returning 0
// when the caps omit it.
func framerateFromCaps(caps *gst.Caps) float64 {
	if caps == nil || caps.GetSize() == 0 {
		return 0
	}
	s := caps.GetStructureAt(0)
	if s == nil {
		return 0
	}
	v, err := s.GetValue("framerate")
	if err != nil {
		return 0
	}
	if fr, ok := v.(*gst.FractionValue); ok && fr.Denom() != 0 {
		return float64(fr.Num()) / float64(fr.Denom())
	}
	return 0
}
