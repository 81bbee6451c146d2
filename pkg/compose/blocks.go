package compose

import "github.com/gardar/docsembly/pkg/raster"

// Block is one unit of content in a composition request. The concrete types
// are TextBlock, ImageBlock, TableBlock and OriginalPageBlock; block order
// defines output page order and is preserved end-to-end. Blocks are owned by
// the caller and only read during composition.
type Block interface {
	blockKind() string
}

// TextBlock places a run of text, word-wrapped to the usable page width.
// The whole block starts on a fresh page when it does not fit in the
// remaining space but would fit on an empty page; once placement begins,
// overflow continues line by line onto following pages.
type TextBlock struct {
	Text string
}

func (TextBlock) blockKind() string { return "text" }

// ImageBlock places a raster image scaled to WidthPercent of the usable page
// width (100 when zero), preserving aspect ratio. An image taller than a full
// page's usable height is downscaled to fit exactly one page.
type ImageBlock struct {
	Image *raster.Image

	// WidthPercent is the requested width as a percentage of the usable
	// page width, in (0,100]. Zero means full width.
	WidthPercent float64
}

func (ImageBlock) blockKind() string { return "image" }

// TableBlock lays out a fixed-column grid with bordered, wrapped cells.
// Pagination happens between rows only, never mid-row. A row with fewer
// cells than ColumnCount lets its last cell span the remaining columns.
type TableBlock struct {
	Rows        [][]string
	ColumnCount int
}

func (TableBlock) blockKind() string { return "table" }

// OriginalPageBlock inserts one page from a registered source document
// verbatim. These blocks bypass the cursor flow entirely: each occupies
// exactly one output page sized to the source page's own dimensions, and the
// page content is copied opaquely, never re-rasterized.
type OriginalPageBlock struct {
	DocumentID string
	PageIndex  int // 0-based
}

func (OriginalPageBlock) blockKind() string { return "page" }
