// Package raster provides the pixel buffer type and pure geometry functions
// used by the image transform pipeline.
//
// An Image wraps an owned, contiguous, interleaved RGBA buffer together with
// its dimensions. Width and height always match the buffer capacity exactly;
// no stride padding is exposed. Every transform produces a new Image, so a
// decoded buffer can be shared freely across concurrent operations.
//
// The geometry functions (CanvasSize, ResolveCropPixels, FitRect) are pure and
// total: invalid inputs are clamped into range rather than rejected, and
// identical inputs always produce identical outputs.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	_ "image/gif" // register GIF decoding
)

// DefaultJPEGQuality is used when an Image carries no explicit re-encode quality.
const DefaultJPEGQuality = 90

// Image is an owned 2D buffer of RGBA samples.
//
// Pix holds 4 bytes per pixel (R, G, B, A) in row-major order, so
// len(Pix) == Width*Height*4. Treat an Image as immutable once it has been
// handed to another component.
type Image struct {
	Pix    []uint8
	Width  int
	Height int

	// Quality is the JPEG quality level used on re-encode (1-100).
	// Zero means DefaultJPEGQuality.
	Quality int
}

// DecodeError reports an unreadable or corrupt source image.
type DecodeError struct {
	Format string // detected format, if any
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("decode %s image: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// New allocates a zeroed Image of the given dimensions.
// Negative dimensions are clamped to zero.
func New(width, height int) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Image{
		Pix:    make([]uint8, width*height*4),
		Width:  width,
		Height: height,
	}
}

// Decode parses encoded image bytes (JPEG, PNG or GIF) into an Image.
// A malformed or unsupported source is reported as a *DecodeError.
func Decode(data []byte) (*Image, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	return FromImage(src), nil
}

// FromImage copies a standard library image into an owned RGBA buffer.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)

	im := New(b.Dx(), b.Dy())
	copy(im.Pix, rgba.Pix)
	return im
}

// Clone returns a deep copy of the image.
func (im *Image) Clone() *Image {
	out := &Image{
		Pix:     make([]uint8, len(im.Pix)),
		Width:   im.Width,
		Height:  im.Height,
		Quality: im.Quality,
	}
	copy(out.Pix, im.Pix)
	return out
}

// At returns the RGBA sample at (x, y). Coordinates outside the canvas are
// clamped to the nearest edge pixel.
func (im *Image) At(x, y int) (r, g, b, a uint8) {
	if im.Width == 0 || im.Height == 0 {
		return 0, 0, 0, 0
	}
	x = clampInt(x, 0, im.Width-1)
	y = clampInt(y, 0, im.Height-1)
	i := (y*im.Width + x) * 4
	return im.Pix[i], im.Pix[i+1], im.Pix[i+2], im.Pix[i+3]
}

// Set writes the RGBA sample at (x, y). Out-of-range coordinates are ignored.
func (im *Image) Set(x, y int, r, g, b, a uint8) {
	if x < 0 || y < 0 || x >= im.Width || y >= im.Height {
		return
	}
	i := (y*im.Width + x) * 4
	im.Pix[i] = r
	im.Pix[i+1] = g
	im.Pix[i+2] = b
	im.Pix[i+3] = a
}

// ToNRGBA converts the buffer into a standard library image for encoding.
func (im *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	copy(out.Pix, im.Pix)
	return out
}

// EncodePNG serializes the image as PNG.
func (im *Image) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, im.ToNRGBA()); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG serializes the image as JPEG at the image's quality setting.
func (im *Image) EncodeJPEG() ([]byte, error) {
	q := im.Quality
	if q <= 0 || q > 100 {
		q = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, im.ToNRGBA(), &jpeg.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
