package filter

import "github.com/gardar/docsembly/pkg/raster"

// boxBlur3 returns a copy of the image convolved with a 3x3 box kernel.
// Edge pixels reuse the nearest in-bounds sample (raster.Image.At clamps).
func boxBlur3(img *raster.Image) *raster.Image {
	out := raster.New(img.Width, img.Height)
	out.Quality = img.Quality

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			var sr, sg, sb float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					r, g, b, _ := img.At(x+dx, y+dy)
					sr += float64(r)
					sg += float64(g)
					sb += float64(b)
				}
			}
			_, _, _, a := img.At(x, y)
			out.Set(x, y, clampChannel(sr/9), clampChannel(sg/9), clampChannel(sb/9), a)
		}
	}
	return out
}

// sharpen applies an unsharp mask: out = src + amount*(src - blur), with
// amount derived from the [0,100] strength parameter. Higher strength
// monotonically increases edge emphasis.
func sharpen(img *raster.Image, strength int) *raster.Image {
	if strength <= 0 {
		return img
	}
	amount := float64(strength) / 100.0
	blur := boxBlur3(img)

	out := raster.New(img.Width, img.Height)
	out.Quality = img.Quality
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			src := float64(img.Pix[i+c])
			bl := float64(blur.Pix[i+c])
			out.Pix[i+c] = clampChannel(src + amount*(src-bl))
		}
		out.Pix[i+3] = img.Pix[i+3]
	}
	return out
}

// denoise blends the image toward its 3x3 box blur; the [0,100] strength
// parameter is the blend weight, so higher values smooth more.
func denoise(img *raster.Image, strength int) *raster.Image {
	if strength <= 0 {
		return img
	}
	weight := float64(strength) / 100.0
	blur := boxBlur3(img)

	out := raster.New(img.Width, img.Height)
	out.Quality = img.Quality
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			src := float64(img.Pix[i+c])
			bl := float64(blur.Pix[i+c])
			out.Pix[i+c] = clampChannel(src + weight*(bl-src))
		}
		out.Pix[i+3] = img.Pix[i+3]
	}
	return out
}
