package filter

import "github.com/gardar/docsembly/pkg/raster"

// Preset names a built-in per-pixel filter. Presets are deterministic pure
// functions of (R, G, B, L); they run after any tonal adjustments on the same
// pixel.
type Preset string

// The preset catalog. The scan presets carry constants tuned against real
// scanner output (the +40 lift above luminance 160 in particular); treat
// them as fixed, not derived.
const (
	PresetNone       Preset = ""
	PresetGrayscale  Preset = "grayscale"
	PresetSepia      Preset = "sepia"
	PresetScan       Preset = "scan"
	PresetAutoScan   Preset = "auto-scan"
	PresetSoftScan   Preset = "soft-scan"
	PresetColorBoost Preset = "color-boost"
)

// scanLiftThreshold and scanLift brighten paper background without blowing
// out text: any sample above the threshold is lifted by a fixed amount.
const (
	scanLiftThreshold = 160.0
	scanLift          = 40.0
)

// Presets lists every selectable preset name, in catalog order.
func Presets() []Preset {
	return []Preset{
		PresetGrayscale,
		PresetSepia,
		PresetScan,
		PresetAutoScan,
		PresetSoftScan,
		PresetColorBoost,
	}
}

func (p Preset) valid() bool {
	switch p {
	case PresetNone, PresetGrayscale, PresetSepia, PresetScan,
		PresetAutoScan, PresetSoftScan, PresetColorBoost:
		return true
	}
	return false
}

// applyPreset runs the named preset over every pixel in place.
// Callers must have validated the preset name.
func applyPreset(img *raster.Image, p Preset) {
	fn := presetFunc(p)
	if fn == nil {
		return
	}
	for i := 0; i < len(img.Pix); i += 4 {
		r := float64(img.Pix[i])
		g := float64(img.Pix[i+1])
		b := float64(img.Pix[i+2])
		lum := luminance(r, g, b)

		nr, ng, nb := fn(r, g, b, lum)
		img.Pix[i] = clampChannel(nr)
		img.Pix[i+1] = clampChannel(ng)
		img.Pix[i+2] = clampChannel(nb)
	}
}

// presetFunc maps a preset name to its per-pixel formula.
func presetFunc(p Preset) func(r, g, b, lum float64) (float64, float64, float64) {
	switch p {
	case PresetGrayscale:
		return func(r, g, b, lum float64) (float64, float64, float64) {
			return lum, lum, lum
		}

	case PresetSepia:
		return func(r, g, b, lum float64) (float64, float64, float64) {
			nr := 0.393*r + 0.769*g + 0.189*b
			ng := 0.349*r + 0.686*g + 0.168*b
			nb := 0.272*r + 0.534*g + 0.131*b
			return nr, ng, nb
		}

	case PresetScan:
		// High-contrast grayscale: a steep curve around mid-gray plus the
		// background lift, pushing paper toward white and ink toward black.
		return func(r, g, b, lum float64) (float64, float64, float64) {
			v := contrastCurve(lum, 60)
			if v > scanLiftThreshold {
				v += scanLift
			}
			return v, v, v
		}

	case PresetAutoScan:
		// Color-preserving scan cleanup: lift bright samples per channel,
		// then a mild contrast bump.
		return func(r, g, b, lum float64) (float64, float64, float64) {
			if lum > scanLiftThreshold {
				r += scanLift
				g += scanLift
				b += scanLift
			}
			return contrastCurve(r, 30), contrastCurve(g, 30), contrastCurve(b, 30)
		}

	case PresetSoftScan:
		// Gentle grayscale for photographed pages: slight contrast and a
		// small brightness lift so shadows from the camera do not muddy.
		return func(r, g, b, lum float64) (float64, float64, float64) {
			v := contrastCurve(lum, 15) + 10
			return v, v, v
		}

	case PresetColorBoost:
		// Push each channel away from its luminance to increase saturation.
		return func(r, g, b, lum float64) (float64, float64, float64) {
			const saturation = 1.4
			nr := lum + saturation*(r-lum)
			ng := lum + saturation*(g-lum)
			nb := lum + saturation*(b-lum)
			return contrastCurve(nr, 10), contrastCurve(ng, 10), contrastCurve(nb, 10)
		}
	}
	return nil
}

// contrastCurve applies f(x) = C(x-128)+128 with the photographic contrast
// factor for parameter c in [-100, 100].
func contrastCurve(x, c float64) float64 {
	factor := (259.0 * (c + 255.0)) / (255.0 * (259.0 - c))
	return factor*(x-128) + 128
}
