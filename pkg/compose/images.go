package compose

import (
	"bytes"
	"context"
	"fmt"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/docsembly/pkg/doc"
	"github.com/gardar/docsembly/pkg/raster"
)

// TextRecognizer is the contract for an external text recognition service:
// given an encoded image it returns best-effort text, which may be empty.
// pkg/ocr provides a Document AI implementation.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, image []byte) (string, error)
}

// ImageDocOptions holds settings for an image-to-PDF run.
type ImageDocOptions struct {
	// Recognizer, when set, extracts text from every page.
	Recognizer TextRecognizer

	Progress doc.Progress
}

// ImageDocResult is the outcome of an image-to-PDF run: the finished PDF and,
// when a recognizer was configured, the recognized text per page.
type ImageDocResult struct {
	Output   doc.Output
	PageText []string
}

// ImagesToPDF builds a scan-style PDF from raster images. Page i's physical
// dimensions equal image i's pixel dimensions exactly (one pixel per point),
// with the image drawn edge to edge: no default paper size, no letterboxing.
//
// The progress sink fires at the start and completion of each page. A
// recognizer failure aborts the whole call; no partial document is returned.
func ImagesToPDF(ctx context.Context, images []*raster.Image, opts ImageDocOptions) (*ImageDocResult, error) {
	if len(images) == 0 {
		return nil, &AssemblyError{BlockIndex: -1, Err: fmt.Errorf("no images provided")}
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	result := &ImageDocResult{PageText: make([]string, len(images))}
	total := float64(len(images))

	for i, img := range images {
		if img == nil || img.Width == 0 || img.Height == 0 {
			return nil, &AssemblyError{BlockIndex: i, Err: fmt.Errorf("empty image for page %d", i+1)}
		}
		opts.Progress.Report(float64(i)/total*100, fmt.Sprintf("page %d/%d", i+1, len(images)))

		data, kind, err := encodePage(img)
		if err != nil {
			return nil, &AssemblyError{BlockIndex: i, Err: err}
		}

		w, h := float64(img.Width), float64(img.Height)
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		name := fmt.Sprintf("page%d", i+1)
		imgOpts := fpdf.ImageOptions{ReadDpi: false, ImageType: kind}
		pdf.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(data))
		pdf.ImageOptions(name, 0, 0, w, h, false, imgOpts, 0, "")
		if err := pdf.Error(); err != nil {
			return nil, &AssemblyError{BlockIndex: i, Err: err}
		}

		if opts.Recognizer != nil {
			text, err := opts.Recognizer.RecognizeText(ctx, data)
			if err != nil {
				return nil, fmt.Errorf("text recognition failed on page %d: %w", i+1, err)
			}
			result.PageText[i] = text
		}

		opts.Progress.Report(float64(i+1)/total*100, fmt.Sprintf("page %d/%d done", i+1, len(images)))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &AssemblyError{BlockIndex: -1, Err: err}
	}
	result.Output = doc.Output{Data: buf.Bytes(), MIME: doc.MIMEPDF}
	return result, nil
}

// imagePages is the all-image fast path for Compose: identical page sizing to
// ImagesToPDF, without recognition.
func imagePages(images []*raster.Image, opts Options) (doc.Output, error) {
	res, err := ImagesToPDF(context.Background(), images, ImageDocOptions{Progress: opts.Progress})
	if err != nil {
		return doc.Output{}, err
	}
	return res.Output, nil
}

// encodePage serializes a raster image for embedding, preferring JPEG when
// the image carries a re-encode quality.
func encodePage(img *raster.Image) ([]byte, string, error) {
	if img.Quality > 0 {
		data, err := img.EncodeJPEG()
		return data, "JPEG", err
	}
	data, err := img.EncodePNG()
	return data, "PNG", err
}
