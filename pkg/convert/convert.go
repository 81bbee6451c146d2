// Package convert provides thin, stateless format converters: previously
// extracted plain text is re-encoded as a plain text file, a word-processor
// document, or a PDF. Image sequences are converted through
// compose.ImagesToPDF.
//
// The package also extracts plain text (plus a per-page text array) from
// PDF, DOCX, HTML and plain-text byte buffers.
package convert

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/gardar/docsembly/pkg/compose"
	"github.com/gardar/docsembly/pkg/doc"
)

// UnsupportedFormatError reports a conversion source or target combination
// that is not implemented.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.Format)
}

// ToPlainText re-encodes extracted text as a plain text document.
func ToPlainText(text string) doc.Output {
	return doc.Output{Data: []byte(text), MIME: doc.MIMEText}
}

// ToPDF re-encodes extracted text as a PDF through the page composer.
func ToPDF(text string, opts compose.Options) (doc.Output, error) {
	return compose.Compose([]compose.Block{compose.TextBlock{Text: text}}, opts)
}

// docx package boilerplate. The content types and relationship parts never
// vary for a text-only document; only word/document.xml carries content.
const (
	docxContentTypes = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

	docxRels = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`
)

// ToWordDocument re-encodes extracted text as a minimal valid DOCX package.
// Each input line becomes one paragraph, so line breaks are structurally
// preserved rather than collapsed.
func ToWordDocument(text string) (doc.Output, error) {
	var body strings.Builder
	for _, line := range strings.Split(text, "\n") {
		body.WriteString("    <w:p>")
		if line != "" {
			body.WriteString(`<w:r><w:t xml:space="preserve">`)
			if err := xml.EscapeText(&body, []byte(line)); err != nil {
				return doc.Output{}, fmt.Errorf("failed to escape paragraph text: %w", err)
			}
			body.WriteString("</w:t></w:r>")
		}
		body.WriteString("</w:p>\n")
	}

	document := xml.Header + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
` + body.String() + `  </w:body>
</w:document>`

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	parts := []struct {
		name, content string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", document},
	}
	for _, part := range parts {
		f, err := w.Create(part.name)
		if err != nil {
			return doc.Output{}, fmt.Errorf("failed to create %s: %w", part.name, err)
		}
		if _, err := f.Write([]byte(part.content)); err != nil {
			return doc.Output{}, fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return doc.Output{}, fmt.Errorf("failed to finalize DOCX package: %w", err)
	}
	return doc.Output{Data: buf.Bytes(), MIME: doc.MIMEDocx}, nil
}
