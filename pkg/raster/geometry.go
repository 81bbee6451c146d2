package raster

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	X, Y          int
	Width, Height int
}

// RectF is an axis-aligned rectangle in fractional units, used for
// aspect-preserving fit computations.
type RectF struct {
	X, Y          float64
	Width, Height float64
}

// CropPercent describes a crop region in percentage space, each field in
// [0,100], measured against the post-rotation canvas. Values outside the
// range are clamped, never rejected.
type CropPercent struct {
	X, Y          float64
	Width, Height float64
}

// CanvasSize returns the canvas dimensions after rotating an image of the
// given natural size by rotationDeg. Width and height swap at 90 and 270;
// any other angle (including unnormalized multiples of 360) leaves the
// dimensions unchanged.
func CanvasSize(naturalWidth, naturalHeight, rotationDeg int) (int, int) {
	rot := ((rotationDeg % 360) + 360) % 360
	if rot == 90 || rot == 270 {
		return naturalHeight, naturalWidth
	}
	return naturalWidth, naturalHeight
}

// ResolveCropPixels converts a percentage-space crop into pixel coordinates
// against the post-rotation canvas. The result always satisfies
// 0 <= X, 0 <= Y, X+Width <= canvasWidth, Y+Height <= canvasHeight, even
// when the UI supplies percentages beyond 100 or below 0.
func ResolveCropPixels(pct CropPercent, canvasWidth, canvasHeight int) Rect {
	if canvasWidth < 0 {
		canvasWidth = 0
	}
	if canvasHeight < 0 {
		canvasHeight = 0
	}

	x := int(clampFloat(pct.X, 0, 100) / 100 * float64(canvasWidth))
	y := int(clampFloat(pct.Y, 0, 100) / 100 * float64(canvasHeight))
	w := int(clampFloat(pct.Width, 0, 100) / 100 * float64(canvasWidth))
	h := int(clampFloat(pct.Height, 0, 100) / 100 * float64(canvasHeight))

	if x > canvasWidth {
		x = canvasWidth
	}
	if y > canvasHeight {
		y = canvasHeight
	}
	if x+w > canvasWidth {
		w = canvasWidth - x
	}
	if y+h > canvasHeight {
		h = canvasHeight - y
	}
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// FitRect computes the largest centered rectangle with the natural aspect
// ratio that fits inside the given box: uniform scale =
// min(boxWidth/naturalWidth, boxHeight/naturalHeight). Degenerate inputs
// yield a zero rectangle centered in the box.
func FitRect(naturalWidth, naturalHeight, boxWidth, boxHeight float64) RectF {
	if boxWidth < 0 {
		boxWidth = 0
	}
	if boxHeight < 0 {
		boxHeight = 0
	}
	if naturalWidth <= 0 || naturalHeight <= 0 {
		return RectF{X: boxWidth / 2, Y: boxHeight / 2}
	}

	scale := boxWidth / naturalWidth
	if s := boxHeight / naturalHeight; s < scale {
		scale = s
	}
	w := naturalWidth * scale
	h := naturalHeight * scale
	return RectF{
		X:      (boxWidth - w) / 2,
		Y:      (boxHeight - h) / 2,
		Width:  w,
		Height: h,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
