// Package merge copies selected pages from previously loaded PDF documents
// into a new output document without re-rasterizing or re-flowing anything.
//
// Each source page is imported as a form XObject (via gofpdi), so its content
// stream and resources are carried over verbatim and the visual result is
// identical to the source. Output page order equals the order of the page
// references passed to Merge.
package merge

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	ledongthuc "github.com/ledongthuc/pdf"

	"github.com/gardar/docsembly/pkg/doc"
)

// Source is an opaque handle to a previously loaded PDF: its id, the raw
// bytes, and the parsed page count. Treat a Source as immutable once loaded;
// it can then be shared safely across concurrent merge calls.
type Source struct {
	ID        string
	Data      []byte
	PageCount int
}

// PageRef selects one page (0-based) from a loaded source document.
type PageRef struct {
	Source    *Source
	PageIndex int
}

// SourceError reports a merge reference to an invalid document or an
// out-of-range page, identifying the offending source.
type SourceError struct {
	DocumentID string
	PageIndex  int // -1 when the document itself failed to parse
	Err        error
}

func (e *SourceError) Error() string {
	if e.PageIndex >= 0 {
		return fmt.Sprintf("source %q page %d: %v", e.DocumentID, e.PageIndex, e.Err)
	}
	return fmt.Sprintf("source %q: %v", e.DocumentID, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// LoadSource parses raw PDF bytes into a Source handle. The document is
// parsed once here; Merge reuses the handle without reparsing.
func LoadSource(id string, data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, &SourceError{DocumentID: id, PageIndex: -1, Err: fmt.Errorf("empty document data")}
	}
	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &SourceError{DocumentID: id, PageIndex: -1, Err: fmt.Errorf("failed to parse PDF: %w", err)}
	}
	return &Source{ID: id, Data: data, PageCount: reader.NumPage()}, nil
}

// importState holds the per-source importer used within a single merge call.
// gofpdi keys imported objects by stream, so each distinct document gets its
// own importer and reader, created at most once per call.
type importState struct {
	importer *gofpdi.Importer
	rs       io.ReadSeeker
}

// ImportCache caches per-source import state for the duration of one output
// document. Not safe for concurrent use; create one per composition call.
type ImportCache map[string]*importState

// NewImportCache returns an empty per-call importer cache for CopyPage.
func NewImportCache() ImportCache {
	return make(ImportCache)
}

// Merge copies the referenced pages, in order, into a new PDF.
//
// Every referenced source must have been loaded via LoadSource. An
// out-of-range page index fails the whole call with a *SourceError; no
// partial document is returned.
func Merge(refs []PageRef) (doc.Output, error) {
	if len(refs) == 0 {
		return doc.Output{}, fmt.Errorf("no pages to merge")
	}
	for _, ref := range refs {
		if ref.Source == nil {
			return doc.Output{}, &SourceError{DocumentID: "", PageIndex: ref.PageIndex, Err: fmt.Errorf("nil source document")}
		}
		if ref.PageIndex < 0 || ref.PageIndex >= ref.Source.PageCount {
			return doc.Output{}, &SourceError{
				DocumentID: ref.Source.ID,
				PageIndex:  ref.PageIndex,
				Err:        fmt.Errorf("page index out of range (document has %d pages)", ref.Source.PageCount),
			}
		}
	}

	pdf := fpdf.New("P", "pt", "", "")
	cache := NewImportCache()

	for _, ref := range refs {
		if err := CopyPage(pdf, cache, ref.Source, ref.PageIndex); err != nil {
			return doc.Output{}, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return doc.Output{}, fmt.Errorf("failed to generate merged PDF: %w", err)
	}
	return doc.Output{Data: buf.Bytes(), MIME: doc.MIMEPDF}, nil
}

// CopyPage imports one source page into pdf as a full page sized to the
// source page's own /MediaBox. The cache keeps importers so each distinct
// source is set up at most once; callers composing mixed documents (see
// pkg/compose) share the same cache across blocks.
func CopyPage(pdf *fpdf.Fpdf, cache ImportCache, src *Source, pageIndex int) error {
	if pageIndex < 0 || pageIndex >= src.PageCount {
		return &SourceError{
			DocumentID: src.ID,
			PageIndex:  pageIndex,
			Err:        fmt.Errorf("page index out of range (document has %d pages)", src.PageCount),
		}
	}

	st, ok := cache[src.ID]
	if !ok {
		st = &importState{
			importer: gofpdi.NewImporter(),
			rs:       bytes.NewReader(src.Data),
		}
		cache[src.ID] = st
	}

	pageNum := pageIndex + 1 // gofpdi is 1-based
	tpl := st.importer.ImportPageFromStream(pdf, &st.rs, pageNum, "/MediaBox")
	if err := pdf.Error(); err != nil {
		return &SourceError{DocumentID: src.ID, PageIndex: pageIndex, Err: err}
	}

	w, h := pageSize(st.importer, pageNum)
	if w <= 0 || h <= 0 {
		return &SourceError{
			DocumentID: src.ID,
			PageIndex:  pageIndex,
			Err:        fmt.Errorf("could not determine page size"),
		}
	}

	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
	st.importer.UseImportedTemplate(pdf, tpl, 0, 0, w, h)
	if err := pdf.Error(); err != nil {
		return &SourceError{DocumentID: src.ID, PageIndex: pageIndex, Err: err}
	}
	return nil
}

// pageSize reads the /MediaBox dimensions for a 1-based page number from the
// importer's parsed page sizes.
func pageSize(imp *gofpdi.Importer, pageNum int) (float64, float64) {
	sizes := imp.GetPageSizes()
	dims, ok := sizes[pageNum]
	if !ok {
		return 0, 0
	}
	mb, ok := dims["/MediaBox"]
	if !ok {
		return 0, 0
	}
	return mb["w"], mb["h"]
}
