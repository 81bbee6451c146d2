// Package doc defines the shared output contract for the document pipeline.
//
// Every assembly path in docsembly (compose, merge, convert) produces an Output:
// the finished byte stream plus its declared MIME type. Ownership of the bytes
// transfers to the caller on return.
package doc

// MIME types for the supported output formats.
const (
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain; charset=utf-8"
)

// Output is a produced document: a byte buffer plus its content type.
type Output struct {
	Data []byte // Finished document bytes
	MIME string // Declared content type
}

// Progress is an optional sink invoked during multi-page operations.
// Implementations receive a completion percentage in [0,100] and a short
// human-readable status. Callbacks are invoked at least at the start and
// completion of each page or unit of work.
type Progress func(percent float64, status string)

// Report invokes p if non-nil. Safe to call on a nil Progress.
func (p Progress) Report(percent float64, status string) {
	if p != nil {
		p(percent, status)
	}
}
