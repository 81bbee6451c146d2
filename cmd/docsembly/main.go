// docsembly is a command-line tool for assembling documents from a YAML job manifest.
//
// A manifest lists source documents, an ordered sequence of content blocks, and
// the output target. Text blocks flow onto A4 pages, images are placed scaled
// to a width percentage (or, for all-image manifests, get pages sized to their
// exact pixel dimensions), tables render with borders, and pages from
// registered source PDFs are copied in verbatim.
//
// Manifest format:
//
//	output: assembled.pdf
//	format: pdf            # pdf (default), txt or docx for text-only manifests
//	sources:
//	  - id: report
//	    path: quarterly-report.pdf
//	blocks:
//	  - text: "Cover note"
//	  - text_file: summary.txt
//	  - image: scan.jpg
//	    width_percent: 80
//	    rotation: 90
//	    crop: {x: 5, y: 5, width: 90, height: 90}
//	    preset: scan
//	    adjust: {brightness: 10, contrast: 20}
//	  - table:
//	      columns: 2
//	      rows:
//	        - [name, value]
//	        - [pages, "12"]
//	  - page: {source: report, index: 3}
//
// Usage:
//
//	docsembly -manifest job.yml [options]
//
// Flags:
//
//	-manifest string  Path to the YAML job manifest (required)
//	-output string    Override the manifest's output path
//	-quiet            Suppress progress output
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gardar/docsembly/pkg/compose"
	"github.com/gardar/docsembly/pkg/convert"
	"github.com/gardar/docsembly/pkg/doc"
	"github.com/gardar/docsembly/pkg/filter"
	"github.com/gardar/docsembly/pkg/merge"
	"github.com/gardar/docsembly/pkg/raster"
)

type manifest struct {
	Output  string       `yaml:"output"`
	Format  string       `yaml:"format"`
	Sources []sourceSpec `yaml:"sources"`
	Blocks  []blockSpec  `yaml:"blocks"`
}

type sourceSpec struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

// blockSpec is one manifest block; exactly one of Text, TextFile, Image, Table
// or Page selects the block kind.
type blockSpec struct {
	Text     string `yaml:"text"`
	TextFile string `yaml:"text_file"`

	Image        string      `yaml:"image"`
	WidthPercent float64     `yaml:"width_percent"`
	Rotation     int         `yaml:"rotation"`
	FlipH        bool        `yaml:"flip_h"`
	FlipV        bool        `yaml:"flip_v"`
	Crop         *cropSpec   `yaml:"crop"`
	Preset       string      `yaml:"preset"`
	Adjust       *adjustSpec `yaml:"adjust"`

	Table *tableSpec `yaml:"table"`
	Page  *pageSpec  `yaml:"page"`
}

type cropSpec struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type adjustSpec struct {
	Brightness int `yaml:"brightness"`
	Contrast   int `yaml:"contrast"`
	Shadows    int `yaml:"shadows"`
	Sharpness  int `yaml:"sharpness"`
	Denoise    int `yaml:"denoise"`
}

type tableSpec struct {
	Columns int        `yaml:"columns"`
	Rows    [][]string `yaml:"rows"`
}

type pageSpec struct {
	Source string `yaml:"source"`
	Index  int    `yaml:"index"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(m.Blocks) == 0 {
		return nil, fmt.Errorf("manifest has no blocks")
	}
	if m.Output == "" {
		return nil, fmt.Errorf("manifest has no output path")
	}
	return &m, nil
}

// buildBlock converts one manifest entry into a composer block, decoding and
// filtering images as specified. baseDir anchors relative file paths.
func buildBlock(spec blockSpec, baseDir string) (compose.Block, error) {
	switch {
	case spec.TextFile != "":
		data, err := os.ReadFile(resolve(baseDir, spec.TextFile))
		if err != nil {
			return nil, fmt.Errorf("failed to read text file: %w", err)
		}
		return compose.TextBlock{Text: string(data)}, nil

	case spec.Image != "":
		data, err := os.ReadFile(resolve(baseDir, spec.Image))
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		img, err := raster.Decode(data)
		if err != nil {
			return nil, err
		}
		fspec := filter.Spec{
			Rotation: spec.Rotation,
			FlipH:    spec.FlipH,
			FlipV:    spec.FlipV,
			Preset:   filter.Preset(spec.Preset),
		}
		if spec.Crop != nil {
			fspec.Crop = &raster.CropPercent{
				X: spec.Crop.X, Y: spec.Crop.Y,
				Width: spec.Crop.Width, Height: spec.Crop.Height,
			}
		}
		if spec.Adjust != nil {
			fspec.Adjust = &filter.Adjust{
				Brightness: spec.Adjust.Brightness,
				Contrast:   spec.Adjust.Contrast,
				Shadows:    spec.Adjust.Shadows,
				Sharpness:  spec.Adjust.Sharpness,
				Denoise:    spec.Adjust.Denoise,
			}
		}
		img, err = filter.Apply(img, fspec)
		if err != nil {
			return nil, err
		}
		return compose.ImageBlock{Image: img, WidthPercent: spec.WidthPercent}, nil

	case spec.Table != nil:
		return compose.TableBlock{Rows: spec.Table.Rows, ColumnCount: spec.Table.Columns}, nil

	case spec.Page != nil:
		return compose.OriginalPageBlock{DocumentID: spec.Page.Source, PageIndex: spec.Page.Index}, nil

	case spec.Text != "":
		return compose.TextBlock{Text: spec.Text}, nil
	}
	return nil, fmt.Errorf("block selects no content (one of text, text_file, image, table or page required)")
}

// assembleText handles the txt and docx formats, which only make sense for
// manifests made entirely of text blocks.
func assembleText(m *manifest, baseDir string) (doc.Output, error) {
	var parts []string
	for i, spec := range m.Blocks {
		block, err := buildBlock(spec, baseDir)
		if err != nil {
			return doc.Output{}, fmt.Errorf("block %d: %w", i, err)
		}
		tb, ok := block.(compose.TextBlock)
		if !ok {
			return doc.Output{}, fmt.Errorf("block %d: format %q supports text blocks only", i, m.Format)
		}
		parts = append(parts, tb.Text)
	}
	text := strings.Join(parts, "\n\n")

	if m.Format == "docx" {
		return convert.ToWordDocument(text)
	}
	return convert.ToPlainText(text), nil
}

func assemblePDF(m *manifest, baseDir string, quiet bool) (doc.Output, error) {
	blocks := make([]compose.Block, 0, len(m.Blocks))
	for i, spec := range m.Blocks {
		block, err := buildBlock(spec, baseDir)
		if err != nil {
			return doc.Output{}, fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}

	opts := compose.DefaultOptions()
	if len(m.Sources) > 0 {
		reg := merge.NewRegistry()
		for _, src := range m.Sources {
			data, err := os.ReadFile(resolve(baseDir, src.Path))
			if err != nil {
				return doc.Output{}, fmt.Errorf("failed to read source %s: %w", src.ID, err)
			}
			if _, err := reg.Load(src.ID, data); err != nil {
				return doc.Output{}, err
			}
			if !quiet {
				fmt.Printf("Registered source %s (%s)\n", src.ID, src.Path)
			}
		}
		opts.Sources = reg
	}
	if !quiet {
		opts.Progress = func(percent float64, status string) {
			fmt.Printf("[%5.1f%%] %s\n", percent, status)
		}
	}

	return compose.Compose(blocks, opts)
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func main() {
	manifestPath := flag.String("manifest", "", "Path to the YAML job manifest (required)")
	outputPath := flag.String("output", "", "Override the manifest's output path")
	quiet := flag.Bool("quiet", false, "Suppress progress output")
	flag.Parse()

	if *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -manifest flag is required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	m, err := loadManifest(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *outputPath != "" {
		m.Output = *outputPath
	}
	baseDir := filepath.Dir(*manifestPath)

	var out doc.Output
	switch m.Format {
	case "", "pdf":
		out, err = assemblePDF(m, baseDir, *quiet)
	case "txt", "docx":
		out, err = assembleText(m, baseDir)
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported output format %q (pdf, txt or docx)\n", m.Format)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	target := resolve(baseDir, m.Output)
	if err := os.WriteFile(target, out.Data, 0666); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Printf("Assembled document written to %s (%s)\n", target, out.MIME)
	}
}
