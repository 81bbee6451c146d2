package merge

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"regexp"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	ledongthuc "github.com/ledongthuc/pdf"
)

// buildPDF creates a PDF with one page per entry, each carrying its text.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	for _, text := range pages {
		pdf.AddPage()
		pdf.Text(72, 72, text)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("failed to build fixture PDF: %v", err)
	}
	return buf.Bytes()
}

var literalRE = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)

// pageLiterals returns every string literal drawn on a page (1-based),
// reading the decoded page content stream plus any form XObjects it uses, so
// pages copied in as imported templates are covered too.
func pageLiterals(t *testing.T, data []byte, pageNum int) []string {
	t.Helper()
	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to parse PDF: %v", err)
	}
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		t.Fatalf("page %d is null", pageNum)
	}

	var chunks []string
	var collect func(v ledongthuc.Value)
	collect = func(v ledongthuc.Value) {
		switch v.Kind() {
		case ledongthuc.Array:
			for i := 0; i < v.Len(); i++ {
				collect(v.Index(i))
			}
		case ledongthuc.Stream:
			rc := v.Reader()
			defer rc.Close()
			raw, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("failed to read stream on page %d: %v", pageNum, err)
			}
			chunks = append(chunks, string(raw))
		}
	}
	collect(page.V.Key("Contents"))
	xobjects := page.V.Key("Resources").Key("XObject")
	for _, name := range xobjects.Keys() {
		collect(xobjects.Key(name))
	}

	var literals []string
	for _, chunk := range chunks {
		for _, m := range literalRE.FindAllStringSubmatch(chunk, -1) {
			literals = append(literals, m[1])
		}
	}
	return literals
}

// pageHasText reports whether the given text literal is drawn on the page.
func pageHasText(t *testing.T, data []byte, pageNum int, text string) bool {
	t.Helper()
	for _, lit := range pageLiterals(t, data, pageNum) {
		if lit == text {
			return true
		}
	}
	return false
}

func TestLoadSource(t *testing.T) {
	data := buildPDF(t, "one", "two", "three")
	src, err := LoadSource("fixture", data)
	if err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}
	if src.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", src.PageCount)
	}
	if src.ID != "fixture" {
		t.Errorf("ID = %q, want %q", src.ID, "fixture")
	}
}

func TestLoadSourceInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("this is not a pdf at all")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSource("bad", tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			var srcErr *SourceError
			if !errors.As(err, &srcErr) {
				t.Fatalf("expected *SourceError, got %T: %v", err, err)
			}
			if srcErr.DocumentID != "bad" {
				t.Errorf("DocumentID = %q, want %q", srcErr.DocumentID, "bad")
			}
		})
	}
}

func TestMergeOrdering(t *testing.T) {
	docA, err := LoadSource("a", buildPDF(t, "alpha", "beta", "gamma"))
	if err != nil {
		t.Fatalf("LoadSource(a) failed: %v", err)
	}
	docB, err := LoadSource("b", buildPDF(t, "delta"))
	if err != nil {
		t.Fatalf("LoadSource(b) failed: %v", err)
	}

	out, err := Merge([]PageRef{
		{Source: docA, PageIndex: 2},
		{Source: docB, PageIndex: 0},
		{Source: docA, PageIndex: 0},
	})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if out.MIME != "application/pdf" {
		t.Errorf("MIME = %q, want application/pdf", out.MIME)
	}

	merged, err := LoadSource("out", out.Data)
	if err != nil {
		t.Fatalf("merged output does not parse: %v", err)
	}
	if merged.PageCount != 3 {
		t.Fatalf("merged PageCount = %d, want 3", merged.PageCount)
	}

	want := []string{"gamma", "delta", "alpha"}
	for i, text := range want {
		if !pageHasText(t, out.Data, i+1, text) {
			t.Errorf("page %d does not carry %q; literals: %v", i+1, text, pageLiterals(t, out.Data, i+1))
		}
	}
}

func TestMergeFidelity(t *testing.T) {
	pages := []string{
		"page one", "page two", "page three", "page four", "page five",
		"page six", "page seven", "page eight", "page nine", "page ten",
	}
	data := buildPDF(t, pages...)
	src, err := LoadSource("ten", data)
	if err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}

	out, err := Merge([]PageRef{{Source: src, PageIndex: 6}})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	direct := pageLiterals(t, data, 7)
	copied := pageLiterals(t, out.Data, 1)
	if !reflect.DeepEqual(direct, copied) {
		t.Errorf("copied page literals = %v, want %v (extracted from untouched source)", copied, direct)
	}
}

func TestMergeOutOfRange(t *testing.T) {
	src, err := LoadSource("short", buildPDF(t, "only page"))
	if err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}

	for _, idx := range []int{-1, 1, 99} {
		_, err := Merge([]PageRef{{Source: src, PageIndex: idx}})
		if err == nil {
			t.Fatalf("expected error for page index %d", idx)
		}
		var srcErr *SourceError
		if !errors.As(err, &srcErr) {
			t.Fatalf("expected *SourceError, got %T: %v", err, err)
		}
		if srcErr.DocumentID != "short" || srcErr.PageIndex != idx {
			t.Errorf("error identifies %q page %d, want %q page %d",
				srcErr.DocumentID, srcErr.PageIndex, "short", idx)
		}
	}
}

func TestMergeEmpty(t *testing.T) {
	if _, err := Merge(nil); err == nil {
		t.Error("expected error for empty page reference list")
	}
}

func TestRegistryLoadsOnce(t *testing.T) {
	reg := NewRegistry()
	data := buildPDF(t, "solo")

	first, err := reg.Load("doc", data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, err := reg.Load("doc", data)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if first != second {
		t.Error("Load reparsed an already registered document")
	}

	got, err := reg.Get("doc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != first {
		t.Error("Get returned a different handle")
	}
}

func TestRegistryGetMissing(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("nope")
	if err == nil {
		t.Fatal("expected error for unregistered id")
	}
	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected *SourceError, got %T", err)
	}
}
