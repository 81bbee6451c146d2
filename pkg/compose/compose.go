// Package compose lays out heterogeneous content blocks on page canvases and
// produces a single well-formed PDF byte stream.
//
// The composer maintains a running vertical cursor and a current page. Text
// blocks word-wrap to the usable width and paginate whole-block first, then
// per-line. Image blocks scale to a caller-chosen share of the usable width.
// Table blocks paginate between rows only. Original-page blocks bypass the
// cursor entirely and are copied verbatim from their source document at the
// source page's own size (see pkg/merge).
//
// An all-image request (every block an ImageBlock with no width override) is
// treated as a scan document: each output page's physical dimensions equal
// the source image's pixel dimensions exactly, with no default paper size and
// no letterboxing.
package compose

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/docsembly/pkg/doc"
	"github.com/gardar/docsembly/pkg/merge"
	"github.com/gardar/docsembly/pkg/raster"
)

// A4 page dimensions in points.
const (
	a4Width  = 595.28
	a4Height = 841.89
)

// blockGap is the vertical space left after each cursor-flow block.
const blockGap = 12.0

// FontConfig contains font settings for composed text.
type FontConfig struct {
	Name        string  // Font name (e.g., "Helvetica")
	Style       string  // Font style ("", "B", "I", "BI")
	Size        float64 // Font size in points
	LineSpacing float64 // Line height as a multiple of font size
	AscentRatio float64 // Baseline offset within a line
}

// DefaultFont is tried and tested for body text in composed documents.
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	Style:       "",
	Size:        11,
	LineSpacing: 1.45,
	AscentRatio: 0.718,
}

// Options holds user settings for one composition call.
type Options struct {
	PageWidth  float64 // Page width in points (default A4)
	PageHeight float64 // Page height in points (default A4)
	Margin     float64 // Uniform page margin in points
	Font       FontConfig

	// Sources resolves OriginalPageBlock document ids. May be nil when no
	// such blocks are present.
	Sources *merge.Registry

	Progress doc.Progress // Optional progress sink
	Logger   io.Writer    // Warning output (nil = stdout)
}

// DefaultOptions returns composition options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		PageWidth:  a4Width,
		PageHeight: a4Height,
		Margin:     36,
		Font:       DefaultFont,
	}
}

// AssemblyError reports that the composer failed to produce a valid output
// stream. The whole compose call is aborted; partial output is never
// returned.
type AssemblyError struct {
	BlockIndex int // -1 when the failure is not tied to a block
	Err        error
}

func (e *AssemblyError) Error() string {
	if e.BlockIndex >= 0 {
		return fmt.Sprintf("assembly failed at block %d: %v", e.BlockIndex, e.Err)
	}
	return fmt.Sprintf("assembly failed: %v", e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// Compose lays out the blocks, in order, into a single PDF.
func Compose(blocks []Block, opts Options) (doc.Output, error) {
	if len(blocks) == 0 {
		return doc.Output{}, &AssemblyError{BlockIndex: -1, Err: fmt.Errorf("no content blocks")}
	}
	opts = withDefaults(opts)

	if imgs, ok := allImages(blocks); ok {
		return imagePages(imgs, opts)
	}

	c := newComposer(opts)
	total := float64(len(blocks))
	for i, block := range blocks {
		opts.Progress.Report(float64(i)/total*100, fmt.Sprintf("block %d/%d: %s", i+1, len(blocks), block.blockKind()))

		var err error
		switch b := block.(type) {
		case TextBlock:
			c.placeText(b.Text)
		case ImageBlock:
			err = c.placeImage(b)
		case TableBlock:
			c.placeTable(b)
		case OriginalPageBlock:
			err = c.placeOriginalPage(b)
		default:
			err = fmt.Errorf("unsupported block type %T", block)
		}
		if err != nil {
			return doc.Output{}, composeErr(i, err)
		}
		if err := c.pdf.Error(); err != nil {
			return doc.Output{}, &AssemblyError{BlockIndex: i, Err: err}
		}
	}

	out, err := c.output()
	if err != nil {
		return doc.Output{}, err
	}
	opts.Progress.Report(100, "document assembled")
	return out, nil
}

// composeErr keeps typed source errors intact and wraps everything else as
// an assembly failure, so callers can discriminate error kinds.
func composeErr(blockIndex int, err error) error {
	var srcErr *merge.SourceError
	if errors.As(err, &srcErr) {
		return err
	}
	return &AssemblyError{BlockIndex: blockIndex, Err: err}
}

type composer struct {
	pdf  *fpdf.Fpdf
	opts Options

	cache merge.ImportCache

	y          float64 // vertical cursor on the current content page
	onPage     bool    // a cursor-flow page is open
	imageCount int
}

func newComposer(opts Options) *composer {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont(opts.Font.Name, opts.Font.Style, opts.Font.Size)
	pdf.SetDrawColor(0, 0, 0)
	return &composer{
		pdf:   pdf,
		opts:  opts,
		cache: merge.NewImportCache(),
	}
}

func (c *composer) usableWidth() float64  { return c.opts.PageWidth - 2*c.opts.Margin }
func (c *composer) usableHeight() float64 { return c.opts.PageHeight - 2*c.opts.Margin }
func (c *composer) bottom() float64       { return c.opts.PageHeight - c.opts.Margin }
func (c *composer) remaining() float64    { return c.bottom() - c.y }
func (c *composer) lineHeight() float64   { return c.opts.Font.Size * c.opts.Font.LineSpacing }

// newContentPage opens a fresh cursor-flow page and resets the cursor.
func (c *composer) newContentPage() {
	c.pdf.AddPageFormat("P", fpdf.SizeType{Wd: c.opts.PageWidth, Ht: c.opts.PageHeight})
	c.y = c.opts.Margin
	c.onPage = true
}

// ensureRoom opens a new page when no cursor page is active or when the
// needed height does not fit in the remaining space. Blocks taller than a
// full page are placed anyway and flow from a fresh page.
func (c *composer) ensureRoom(need float64) {
	if !c.onPage {
		c.newContentPage()
		return
	}
	if need > c.remaining() {
		c.newContentPage()
	}
}

// placeText word-wraps the text and writes it line by line, paginating
// whole-block first: when the block does not fit in the remaining space it
// starts on a fresh page before any text is placed.
func (c *composer) placeText(text string) {
	lines := c.wrapText(text, c.usableWidth())
	if len(lines) == 0 {
		return
	}

	lineH := c.lineHeight()
	blockH := lineH * float64(len(lines))
	if blockH > c.usableHeight() {
		// Too tall for any page: start fresh and flow per line.
		blockH = c.usableHeight()
	}
	c.ensureRoom(blockH)

	ascent := c.opts.Font.Size * c.opts.Font.AscentRatio
	for _, line := range lines {
		if c.y+lineH > c.bottom() {
			c.newContentPage()
		}
		if line != "" {
			c.pdf.Text(c.opts.Margin, c.y+ascent, line)
		}
		c.y += lineH
	}
	c.y += blockGap
}

// placeImage scales the image to the requested share of the usable width and
// places it centered, starting a new page or downscaling to one full page
// when it does not fit.
func (c *composer) placeImage(b ImageBlock) error {
	if b.Image == nil || b.Image.Width == 0 || b.Image.Height == 0 {
		return fmt.Errorf("empty image block")
	}

	pct := b.WidthPercent
	if pct < 0 || pct > 100 {
		fmt.Fprintf(c.opts.Logger, "Image width %.0f%% out of range, using full width\n", pct)
		pct = 100
	}
	if pct == 0 {
		pct = 100
	}
	w := c.usableWidth() * pct / 100
	h := w * float64(b.Image.Height) / float64(b.Image.Width)

	if !c.onPage {
		c.newContentPage()
	}
	if h > c.remaining() {
		if h > c.usableHeight() {
			// Downscale further so the image fits one full page.
			scale := c.usableHeight() / h
			w *= scale
			h = c.usableHeight()
		}
		if h > c.remaining() {
			c.newContentPage()
		}
	}

	name, opts, err := c.registerImage(b.Image)
	if err != nil {
		return err
	}
	x := c.opts.Margin + (c.usableWidth()-w)/2
	c.pdf.ImageOptions(name, x, c.y, w, h, false, opts, 0, "")
	c.y += h + blockGap
	return nil
}

// placeTable lays out a fixed-column grid with bordered cells and wrapped
// cell text. Row height tracks the tallest cell, including a trailing cell
// spanning the remaining columns, and pagination happens between rows only.
func (c *composer) placeTable(b TableBlock) {
	cols := b.ColumnCount
	if cols < 1 {
		cols = 1
	}
	const cellPad = 4.0
	colW := c.usableWidth() / float64(cols)
	lineH := c.lineHeight()
	ascent := c.opts.Font.Size * c.opts.Font.AscentRatio

	if !c.onPage {
		c.newContentPage()
	}

	for ri, row := range b.Rows {
		if len(row) > cols {
			fmt.Fprintf(c.opts.Logger, "Table row %d has %d cells for %d columns, truncating\n", ri+1, len(row), cols)
			row = row[:cols]
		}

		// Wrap every cell first to find the row height.
		cellLines := make([][]string, len(row))
		rowLines := 1
		for i, cell := range row {
			span := 1
			if i == len(row)-1 {
				span = cols - len(row) + 1
			}
			cellLines[i] = c.wrapText(cell, colW*float64(span)-2*cellPad)
			if n := len(cellLines[i]); n > rowLines {
				rowLines = n
			}
		}
		rowH := lineH*float64(rowLines) + 2*cellPad

		if rowH > c.remaining() {
			c.newContentPage()
		}

		x := c.opts.Margin
		for i := range row {
			span := 1
			if i == len(row)-1 {
				span = cols - len(row) + 1
			}
			cellW := colW * float64(span)
			c.pdf.Rect(x, c.y, cellW, rowH, "D")
			for li, line := range cellLines[i] {
				if line == "" {
					continue
				}
				c.pdf.Text(x+cellPad, c.y+cellPad+lineH*float64(li)+ascent, line)
			}
			x += cellW
		}
		c.y += rowH
	}
	c.y += blockGap
}

// placeOriginalPage copies one page verbatim from a registered source; the
// imported page occupies exactly one output page at the source page's own
// size, so the cursor flow resumes on a fresh page afterwards.
func (c *composer) placeOriginalPage(b OriginalPageBlock) error {
	if c.opts.Sources == nil {
		return &merge.SourceError{DocumentID: b.DocumentID, PageIndex: -1, Err: fmt.Errorf("no source registry configured")}
	}
	src, err := c.opts.Sources.Get(b.DocumentID)
	if err != nil {
		return err
	}
	if err := merge.CopyPage(c.pdf, c.cache, src, b.PageIndex); err != nil {
		return err
	}
	c.onPage = false
	return nil
}

// registerImage encodes the raster buffer and registers it with fpdf under a
// unique name, preferring JPEG when the image carries a re-encode quality.
func (c *composer) registerImage(img *raster.Image) (string, fpdf.ImageOptions, error) {
	data, kind, err := encodePage(img)
	if err != nil {
		return "", fpdf.ImageOptions{}, err
	}

	c.imageCount++
	name := fmt.Sprintf("img%d", c.imageCount)
	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: kind}
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	return name, opts, nil
}

// wrapText greedily word-wraps text to the given width using the current
// font metrics. Explicit newlines are preserved; words wider than the line
// are placed alone rather than broken mid-word.
func (c *composer) wrapText(text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := c.encode(words[0])
		for _, word := range words[1:] {
			w := c.encode(word)
			if c.pdf.GetStringWidth(line+" "+w) <= width {
				line += " " + w
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	}
	// Trim trailing blank lines left by terminal newlines.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// encode converts text to ISO-8859-1 for the core PDF fonts, falling back to
// the raw string when a rune has no Latin-1 mapping.
func (c *composer) encode(s string) string {
	latin1, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	return latin1
}

func (c *composer) output() (doc.Output, error) {
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return doc.Output{}, &AssemblyError{BlockIndex: -1, Err: err}
	}
	return doc.Output{Data: buf.Bytes(), MIME: doc.MIMEPDF}, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.PageWidth <= 0 {
		opts.PageWidth = def.PageWidth
	}
	if opts.PageHeight <= 0 {
		opts.PageHeight = def.PageHeight
	}
	if opts.Margin <= 0 {
		opts.Margin = def.Margin
	}
	if opts.Font.Name == "" {
		opts.Font = def.Font
	}
	if opts.Font.LineSpacing <= 0 {
		opts.Font.LineSpacing = def.Font.LineSpacing
	}
	if opts.Font.AscentRatio <= 0 {
		opts.Font.AscentRatio = def.Font.AscentRatio
	}
	if opts.Logger == nil {
		opts.Logger = os.Stdout
	}
	return opts
}

// allImages reports whether every block is an ImageBlock with no width
// override, i.e. a scan-style all-image document.
func allImages(blocks []Block) ([]*raster.Image, bool) {
	imgs := make([]*raster.Image, 0, len(blocks))
	for _, block := range blocks {
		b, ok := block.(ImageBlock)
		if !ok || b.WidthPercent != 0 {
			return nil, false
		}
		imgs = append(imgs, b.Image)
	}
	return imgs, true
}
