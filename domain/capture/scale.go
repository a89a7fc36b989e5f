package capture

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// ScaleToOutput maps captured pixels of arbitrary size onto an exactly
// outW x outH RGBA buffer under the zoom factor s:
//
//	s == 1: resize straight to the output size (fills exactly, aspect not
//	        preserved)
//	s > 1:  resize to (outW*s, outH*s), then center-crop to the output
//	s < 1:  resize to (outW*s, outH*s), then paste centered onto an
//	        opaque black canvas of the output size
func ScaleToOutput(src image.Image, outW, outH int, s float64) *image.RGBA {
	if s == 1.0 {
		return toRGBA(imaging.Resize(src, outW, outH, imaging.Lanczos))
	}

	scaledW := int(float64(outW) * s)
	scaledH := int(float64(outH) * s)
	scaled := toRGBA(imaging.Resize(src, scaledW, scaledH, imaging.Lanczos))

	if s > 1.0 {
		left := (scaledW - outW) / 2
		top := (scaledH - outH) / 2
		out := image.NewRGBA(image.Rect(0, 0, outW, outH))
		draw.Draw(out, out.Bounds(), scaled, image.Pt(left, top), draw.Src)
		return out
	}

	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)
	pasteX := (outW - scaledW) / 2
	pasteY := (outH - scaledH) / 2
	draw.Draw(out, image.Rect(pasteX, pasteY, pasteX+scaledW, pasteY+scaledH), scaled, image.Point{}, draw.Src)
	return out
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
