package convert

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"

	ledongthuc "github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/gardar/docsembly/pkg/doc"
	"github.com/gardar/docsembly/pkg/raster"
)

// Extraction holds text pulled out of a source document: the full text plus
// a per-page array (a single element for formats without page structure).
type Extraction struct {
	Text      string
	Pages     []string
	PageCount int
}

// Extract pulls plain text from a raw byte buffer, dispatching on content:
// PDF, DOCX, HTML, or plain UTF-8 text. Unrecognizable binary data is
// reported as an *UnsupportedFormatError; a recognized but corrupt document
// as a *raster.DecodeError. The progress sink, when set, fires per page
// during PDF extraction.
func Extract(data []byte, progress doc.Progress) (*Extraction, error) {
	switch {
	case len(data) >= 5 && string(data[:5]) == "%PDF-":
		return extractPDF(data, progress)
	case len(data) >= 4 && string(data[:4]) == "PK\x03\x04":
		return extractDocx(data)
	case looksLikeHTML(data):
		return extractHTML(data)
	case utf8.Valid(data):
		text := strings.TrimSpace(string(data))
		return &Extraction{Text: text, Pages: []string{text}, PageCount: 1}, nil
	}
	return nil, &UnsupportedFormatError{Format: "unknown binary data"}
}

// extractPDF reads text page by page. Pages without extractable text (image
// only scans, for instance) yield empty strings rather than failing the call.
func extractPDF(data []byte, progress doc.Progress) (*Extraction, error) {
	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &raster.DecodeError{Format: "pdf", Err: err}
	}

	pageCount := reader.NumPage()
	pages := make([]string, 0, pageCount)
	var all strings.Builder

	for i := 1; i <= pageCount; i++ {
		progress.Report(float64(i-1)/float64(pageCount)*100, fmt.Sprintf("extracting page %d/%d", i, pageCount))

		var text string
		page := reader.Page(i)
		if !page.V.IsNull() {
			if t, err := page.GetPlainText(nil); err == nil {
				text = strings.TrimSpace(t)
			}
		}
		pages = append(pages, text)
		if text != "" {
			if all.Len() > 0 {
				all.WriteString("\n\n")
			}
			all.WriteString(text)
		}

		progress.Report(float64(i)/float64(pageCount)*100, fmt.Sprintf("extracted page %d/%d", i, pageCount))
	}

	return &Extraction{Text: all.String(), Pages: pages, PageCount: pageCount}, nil
}

// Minimal WordprocessingML shapes; namespace prefixes are ignored by
// encoding/xml so these match w:p, w:r and w:t elements.
type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []string `xml:"t"`
}

// extractDocx reads word/document.xml out of the DOCX package and joins run
// text per paragraph, one line per paragraph.
func extractDocx(data []byte) (*Extraction, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &raster.DecodeError{Format: "docx", Err: err}
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, &UnsupportedFormatError{Format: "zip archive without word/document.xml"}
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, &raster.DecodeError{Format: "docx", Err: err}
	}
	defer rc.Close()

	var parsed docxDocument
	if err := xml.NewDecoder(rc).Decode(&parsed); err != nil {
		return nil, &raster.DecodeError{Format: "docx", Err: fmt.Errorf("failed to parse document.xml: %w", err)}
	}

	var lines []string
	for _, p := range parsed.Body.Paragraphs {
		var line strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Texts {
				line.WriteString(t)
			}
		}
		lines = append(lines, line.String())
	}

	text := strings.TrimSpace(strings.Join(lines, "\n"))
	return &Extraction{Text: text, Pages: []string{text}, PageCount: 1}, nil
}

// blockTags are HTML elements that terminate a line of extracted text.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// extractHTML collects text nodes, skipping script and style subtrees, and
// inserts line breaks at block element boundaries.
func extractHTML(data []byte) (*Extraction, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &raster.DecodeError{Format: "html", Err: err}
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
					sb.WriteString(" ")
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteString("\n")
			}
		}
	}
	walk(root)

	text := strings.TrimSpace(sb.String())
	return &Extraction{Text: text, Pages: []string{text}, PageCount: 1}, nil
}

func looksLikeHTML(data []byte) bool {
	head := strings.ToLower(string(bytes.TrimSpace(data)))
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<body")
}
