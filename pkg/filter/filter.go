// Package filter implements the parameterized image transform pipeline used to
// normalize scanned or photographed pages before they are embedded in a
// document.
//
// A single Apply call performs, in fixed order: rotation by a multiple of 90
// degrees, horizontal/vertical flips, cropping, a per-pixel tonal pass
// (brightness, shadow recovery, contrast), an optional named preset, and
// finally optional sharpen/denoise kernel passes. Rotation is done by explicit
// pixel remapping so the result is the canonical buffer for every downstream
// consumer, not a display-layer transform.
//
// Apply never mutates its input; every call yields a new raster.Image.
package filter

import (
	"fmt"

	"github.com/gardar/docsembly/pkg/raster"
)

// Adjust holds the fine-grained tonal parameters. Each field is a bounded
// scale in [-100, 100]; out-of-range values are clamped.
type Adjust struct {
	Brightness int
	Contrast   int
	Shadows    int
	Sharpness  int
	Denoise    int
}

// Spec describes one image transform request.
//
// Rotation must be a multiple of 90 degrees; other values are normalized by
// CanvasSize semantics (treated as 0 unless they land on 90/180/270). Crop is
// expressed in percentage space against the post-rotation canvas and is
// clamped into bounds rather than rejected.
type Spec struct {
	Rotation int
	FlipH    bool
	FlipV    bool
	Crop     *raster.CropPercent
	Preset   Preset
	Adjust   *Adjust
}

// Apply runs the full transform pipeline and returns a new image.
// A nil or empty spec returns a pixel-identical copy of the input.
func Apply(img *raster.Image, spec Spec) (*raster.Image, error) {
	if img == nil {
		return nil, &raster.DecodeError{Err: fmt.Errorf("nil source image")}
	}
	if spec.Preset != "" && !spec.Preset.valid() {
		return nil, fmt.Errorf("unknown filter preset %q", spec.Preset)
	}

	out := rotate(img, spec.Rotation)

	if spec.FlipH {
		out = flipH(out)
	}
	if spec.FlipV {
		out = flipV(out)
	}

	if spec.Crop != nil {
		rect := raster.ResolveCropPixels(*spec.Crop, out.Width, out.Height)
		out = crop(out, rect)
	}

	if spec.Adjust != nil {
		applyTonal(out, *spec.Adjust)
	}
	if spec.Preset != "" && spec.Preset != PresetNone {
		applyPreset(out, spec.Preset)
	}

	if spec.Adjust != nil {
		if spec.Adjust.Denoise > 0 {
			out = denoise(out, clampParam(spec.Adjust.Denoise))
		}
		if spec.Adjust.Sharpness > 0 {
			out = sharpen(out, clampParam(spec.Adjust.Sharpness))
		}
	}

	return out, nil
}

// rotate remaps pixels for rotations of 90, 180 or 270 degrees. Any other
// angle returns an untouched copy.
func rotate(img *raster.Image, deg int) *raster.Image {
	rot := ((deg % 360) + 360) % 360
	if rot != 90 && rot != 180 && rot != 270 {
		return img.Clone()
	}

	w, h := raster.CanvasSize(img.Width, img.Height, rot)
	out := raster.New(w, h)
	out.Quality = img.Quality

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b, a := img.At(x, y)
			var nx, ny int
			switch rot {
			case 90:
				nx, ny = img.Height-1-y, x
			case 180:
				nx, ny = img.Width-1-x, img.Height-1-y
			case 270:
				nx, ny = y, img.Width-1-x
			}
			out.Set(nx, ny, r, g, b, a)
		}
	}
	return out
}

func flipH(img *raster.Image) *raster.Image {
	out := raster.New(img.Width, img.Height)
	out.Quality = img.Quality
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b, a := img.At(x, y)
			out.Set(img.Width-1-x, y, r, g, b, a)
		}
	}
	return out
}

func flipV(img *raster.Image) *raster.Image {
	out := raster.New(img.Width, img.Height)
	out.Quality = img.Quality
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b, a := img.At(x, y)
			out.Set(x, img.Height-1-y, r, g, b, a)
		}
	}
	return out
}

func crop(img *raster.Image, rect raster.Rect) *raster.Image {
	out := raster.New(rect.Width, rect.Height)
	out.Quality = img.Quality
	for y := 0; y < rect.Height; y++ {
		for x := 0; x < rect.Width; x++ {
			r, g, b, a := img.At(rect.X+x, rect.Y+y)
			out.Set(x, y, r, g, b, a)
		}
	}
	return out
}

// applyTonal runs the per-pixel brightness/shadow/contrast pass in place.
//
// Brightness maps the [-100,100] parameter to an additive offset of up to
// half the channel range. Shadow recovery boosts samples with luminance
// below 100 proportionally to (100-L). Contrast uses the photographic
// contrast factor C = 259(c+255) / (255(259-c)).
func applyTonal(img *raster.Image, adj Adjust) {
	brightness := float64(clampParam(adj.Brightness)) * 255.0 / 200.0
	shadows := float64(clampParam(adj.Shadows)) / 100.0
	contrast := float64(clampParam(adj.Contrast))
	factor := (259.0 * (contrast + 255.0)) / (255.0 * (259.0 - contrast))

	for i := 0; i < len(img.Pix); i += 4 {
		r := float64(img.Pix[i])
		g := float64(img.Pix[i+1])
		b := float64(img.Pix[i+2])
		lum := luminance(r, g, b)

		if brightness != 0 {
			r += brightness
			g += brightness
			b += brightness
		}
		if shadows != 0 && lum < 100 {
			boost := shadows * (100.0 - lum) * 0.8
			r += boost
			g += boost
			b += boost
		}
		if contrast != 0 {
			r = factor*(r-128) + 128
			g = factor*(g-128) + 128
			b = factor*(b-128) + 128
		}

		img.Pix[i] = clampChannel(r)
		img.Pix[i+1] = clampChannel(g)
		img.Pix[i+2] = clampChannel(b)
	}
}

// luminance is the standard Rec. 601 weighting used throughout the pipeline.
func luminance(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

func clampChannel(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func clampParam(v int) int {
	if v < -100 {
		return -100
	}
	if v > 100 {
		return 100
	}
	return v
}
