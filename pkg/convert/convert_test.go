package convert

import (
	"errors"
	"strings"
	"testing"

	"github.com/gardar/docsembly/pkg/compose"
	"github.com/gardar/docsembly/pkg/doc"
	"github.com/gardar/docsembly/pkg/raster"
)

func TestToPlainText(t *testing.T) {
	out := ToPlainText("hello\nworld")
	if out.MIME != doc.MIMEText {
		t.Errorf("MIME = %q, want %q", out.MIME, doc.MIMEText)
	}
	if string(out.Data) != "hello\nworld" {
		t.Errorf("Data = %q, want the input text unchanged", out.Data)
	}
}

func TestToWordDocumentRoundTrip(t *testing.T) {
	// Line breaks, including empty lines, must survive as paragraph
	// boundaries; markup characters must come back unescaped.
	text := "line1\n\nline3 with <angle> & ampersand"

	out, err := ToWordDocument(text)
	if err != nil {
		t.Fatalf("ToWordDocument failed: %v", err)
	}
	if out.MIME != doc.MIMEDocx {
		t.Errorf("MIME = %q, want %q", out.MIME, doc.MIMEDocx)
	}

	ext, err := Extract(out.Data, nil)
	if err != nil {
		t.Fatalf("Extract failed on generated DOCX: %v", err)
	}
	if ext.Text != text {
		t.Errorf("round trip text = %q, want %q", ext.Text, text)
	}
	if ext.PageCount != 1 || len(ext.Pages) != 1 {
		t.Errorf("PageCount = %d, Pages = %d, want 1 and 1", ext.PageCount, len(ext.Pages))
	}
}

func TestToPDFRoundTrip(t *testing.T) {
	out, err := ToPDF("converted body text", compose.DefaultOptions())
	if err != nil {
		t.Fatalf("ToPDF failed: %v", err)
	}
	if out.MIME != doc.MIMEPDF {
		t.Errorf("MIME = %q, want %q", out.MIME, doc.MIMEPDF)
	}

	ext, err := Extract(out.Data, nil)
	if err != nil {
		t.Fatalf("Extract failed on generated PDF: %v", err)
	}
	if !strings.Contains(ext.Text, "converted body text") {
		t.Errorf("extracted text %q missing the source text", ext.Text)
	}
	if ext.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", ext.PageCount)
	}
}

func TestExtractPDFPerPage(t *testing.T) {
	out, err := compose.Compose([]compose.Block{
		compose.TextBlock{Text: strings.Repeat("first document page\n", 40)},
		compose.TextBlock{Text: strings.Repeat("second document page\n", 40)},
	}, compose.DefaultOptions())
	if err != nil {
		t.Fatalf("fixture Compose failed: %v", err)
	}

	var reports int
	ext, err := Extract(out.Data, func(percent float64, status string) { reports++ })
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if ext.PageCount != 2 || len(ext.Pages) != 2 {
		t.Fatalf("PageCount = %d, Pages = %d, want 2 and 2", ext.PageCount, len(ext.Pages))
	}
	if !strings.Contains(ext.Pages[0], "first document page") {
		t.Errorf("page 1 text %q missing expected content", ext.Pages[0])
	}
	if !strings.Contains(ext.Pages[1], "second document page") {
		t.Errorf("page 2 text %q missing expected content", ext.Pages[1])
	}
	if strings.Contains(ext.Pages[0], "second document page") {
		t.Error("page 2 content leaked into page 1 extraction")
	}
	if reports < 2*ext.PageCount {
		t.Errorf("progress fired %d times, want at least %d", reports, 2*ext.PageCount)
	}
}

func TestExtractHTML(t *testing.T) {
	page := `<!DOCTYPE html>
<html><head><title>t</title><style>p { color: red }</style>
<script>var hidden = "should not appear";</script></head>
<body><h1>Heading</h1><p>First paragraph.</p><p>Second paragraph.</p></body></html>`

	ext, err := Extract([]byte(page), nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	for _, want := range []string{"Heading", "First paragraph.", "Second paragraph."} {
		if !strings.Contains(ext.Text, want) {
			t.Errorf("extracted text %q missing %q", ext.Text, want)
		}
	}
	if strings.Contains(ext.Text, "should not appear") {
		t.Error("script content leaked into extracted text")
	}
	if strings.Contains(ext.Text, "color: red") {
		t.Error("style content leaked into extracted text")
	}
	// Block elements break lines, so the heading and paragraphs do not run
	// together on one line.
	if !strings.Contains(ext.Text, "\n") {
		t.Errorf("extracted text %q has no line breaks", ext.Text)
	}
}

func TestExtractPlainText(t *testing.T) {
	ext, err := Extract([]byte("  just some text  \n"), nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if ext.Text != "just some text" {
		t.Errorf("Text = %q, want trimmed input", ext.Text)
	}
	if ext.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", ext.PageCount)
	}
}

func TestExtractUnknownBinary(t *testing.T) {
	_, err := Extract([]byte{0xff, 0xd8, 0x00, 0x81, 0xfe, 0x01}, nil)
	var ufErr *UnsupportedFormatError
	if !errors.As(err, &ufErr) {
		t.Fatalf("expected *UnsupportedFormatError, got %T: %v", err, err)
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	_, err := Extract([]byte("%PDF-1.4 but the rest is garbage"), nil)
	if err == nil {
		t.Fatal("expected error for corrupt PDF")
	}
	var decodeErr *raster.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
	if decodeErr.Format != "pdf" {
		t.Errorf("Format = %q, want pdf", decodeErr.Format)
	}
}
