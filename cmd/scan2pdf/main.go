// scan2pdf is a command-line tool for turning a directory of scanned page
// images into a single PDF.
//
// Images are processed in lexical filename order. Each one runs through the
// filter pipeline (rotation, flips, crop is not exposed here, tonal
// adjustments, preset) and becomes one PDF page sized to its exact pixel
// dimensions, one point per pixel, with no letterboxing.
//
// With -ocr, each page is additionally sent to Google Document AI and the
// recognized text is saved next to the PDF. Authentication uses the
// GOOGLE_APPLICATION_CREDENTIALS environment variable; the config file is the
// usual YAML:
//
//	project_id: "your-gcp-project-id"
//	location: "us"
//	processor_id: "your-processor-id"
//
// Usage:
//
//	scan2pdf -images ./pages -output scan.pdf [options]
//
// Required flags:
//
//	-images string  Directory containing page images
//	-output string  Output PDF path
//
// Processing options:
//
//	-rotation int     Rotate every page clockwise (degrees, multiple of 90)
//	-flip-h           Mirror every page horizontally
//	-flip-v           Mirror every page vertically
//	-preset string    Filter preset (grayscale, sepia, scan, auto-scan, soft-scan, color-boost)
//	-brightness int   Brightness adjustment, -100 to 100
//	-contrast int     Contrast adjustment, -100 to 100
//	-shadows int      Shadow recovery, 0 to 100
//	-sharpness int    Sharpening strength, 0 to 100
//	-denoise int      Noise reduction strength, 0 to 100
//	-quality int      JPEG re-encode quality 1-100; 0 embeds lossless PNG
//
// Text recognition options:
//
//	-ocr string          Path to the Document AI YAML config; enables recognition
//	-text string         Path to save recognized text (default: output path with .txt)
//	-text-format string  Format for the recognized text: txt or docx (default txt)
//
// Example:
//
//	scan2pdf -images ./pages -output scan.pdf -preset scan -rotation 90
//	scan2pdf -images ./pages -output scan.pdf -ocr config.yml -text-format docx
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gardar/docsembly/pkg/compose"
	"github.com/gardar/docsembly/pkg/convert"
	"github.com/gardar/docsembly/pkg/doc"
	"github.com/gardar/docsembly/pkg/filter"
	"github.com/gardar/docsembly/pkg/ocr"
	"github.com/gardar/docsembly/pkg/raster"
)

func main() {
	imageDir := flag.String("images", "", "Directory containing page images (required)")
	outputPath := flag.String("output", "", "Output PDF path (required)")

	rotation := flag.Int("rotation", 0, "Rotate every page clockwise (degrees, multiple of 90)")
	flipH := flag.Bool("flip-h", false, "Mirror every page horizontally")
	flipV := flag.Bool("flip-v", false, "Mirror every page vertically")
	preset := flag.String("preset", "", "Filter preset to apply to every page")
	brightness := flag.Int("brightness", 0, "Brightness adjustment, -100 to 100")
	contrast := flag.Int("contrast", 0, "Contrast adjustment, -100 to 100")
	shadows := flag.Int("shadows", 0, "Shadow recovery, 0 to 100")
	sharpness := flag.Int("sharpness", 0, "Sharpening strength, 0 to 100")
	denoise := flag.Int("denoise", 0, "Noise reduction strength, 0 to 100")
	quality := flag.Int("quality", 0, "JPEG re-encode quality 1-100; 0 embeds lossless PNG")

	ocrConfig := flag.String("ocr", "", "Path to the Document AI YAML config; enables text recognition")
	textPath := flag.String("text", "", "Path to save recognized text (default: output path with .txt)")
	textFormat := flag.String("text-format", "txt", "Format for the recognized text: txt or docx")

	flag.Parse()

	if *imageDir == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -images and -output flags are required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *textFormat != "txt" && *textFormat != "docx" {
		fmt.Fprintf(os.Stderr, "Error: unsupported text format %q (txt or docx)\n", *textFormat)
		os.Exit(1)
	}

	paths, err := filepath.Glob(filepath.Join(*imageDir, "*"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error accessing image directory: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(paths)

	spec := filter.Spec{
		Rotation: *rotation,
		FlipH:    *flipH,
		FlipV:    *flipV,
		Preset:   filter.Preset(*preset),
	}
	if *brightness != 0 || *contrast != 0 || *shadows != 0 || *sharpness != 0 || *denoise != 0 {
		spec.Adjust = &filter.Adjust{
			Brightness: *brightness,
			Contrast:   *contrast,
			Shadows:    *shadows,
			Sharpness:  *sharpness,
			Denoise:    *denoise,
		}
	}

	var images []*raster.Image
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
			os.Exit(1)
		}
		img, err := raster.Decode(data)
		if err != nil {
			// Directories often carry sidecar files; skip what does not decode.
			fmt.Printf("Skipping %s: not a decodable image\n", filepath.Base(path))
			continue
		}
		img, err = filter.Apply(img, spec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to process %s: %v\n", path, err)
			os.Exit(1)
		}
		img.Quality = *quality
		images = append(images, img)
	}
	if len(images) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no decodable images in %s\n", *imageDir)
		os.Exit(1)
	}
	fmt.Printf("Processing %d pages from %s\n", len(images), *imageDir)

	opts := compose.ImageDocOptions{
		Progress: func(percent float64, status string) {
			fmt.Printf("[%5.1f%%] %s\n", percent, status)
		},
	}
	if *ocrConfig != "" {
		cfg, err := ocr.LoadConfig(*ocrConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		engine, err := ocr.NewDocAI(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts.Recognizer = engine
	}

	res, err := compose.ImagesToPDF(context.Background(), images, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outputPath, res.Output.Data, 0666); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output PDF: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Scan PDF created:", *outputPath)

	if *ocrConfig != "" {
		target := *textPath
		if target == "" {
			ext := "." + *textFormat
			target = strings.TrimSuffix(*outputPath, filepath.Ext(*outputPath)) + ext
		}

		text := strings.Join(res.PageText, "\n\n")
		var out doc.Output
		if *textFormat == "docx" {
			out, err = convert.ToWordDocument(text)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to build word document: %v\n", err)
				os.Exit(1)
			}
		} else {
			out = convert.ToPlainText(text)
		}
		if err := os.WriteFile(target, out.Data, 0666); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write recognized text: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Recognized text written to:", target)
	}
}
