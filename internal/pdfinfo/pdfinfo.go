// Package pdfinfo reads page counts and the text layer of PDF documents.
package pdfinfo

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Info describes a PDF document.
type Info struct {
	Pages int
	// Text is the concatenated text layer. Scanned documents that have not been
	// through OCR usually have none.
	Text string
}

// HasText reports whether the document carries a searchable text layer.
func (i *Info) HasText() bool {
	return strings.TrimSpace(i.Text) != ""
}

// Inspect parses data as a PDF and extracts its text layer page by page.
// Pages whose text cannot be read are skipped.
func Inspect(data []byte) (info *Info, err error) {
	// the parser panics on some malformed object streams
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("failed to read PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(content)
		text.WriteString("\n\n")
	}

	return &Info{Pages: numPages, Text: strings.TrimSpace(text.String())}, nil
}

// PageCount returns only the number of pages.
func PageCount(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("failed to read PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	return reader.NumPage(), nil
}
