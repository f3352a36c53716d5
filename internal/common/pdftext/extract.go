// Package pdftext pulls plain text out of tender PDFs and slices it into the
// named sections that government tenders usually carry.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrImageBased = errors.New("PDF appears to be entirely scanned (image-based); no text layer to extract")

// Document is the extracted text of one PDF.
type Document struct {
	FullText     string
	PageCount    int
	Pages        []string
	Sections     map[string]string
	IsImageBased bool
}

const placeholderPrefix = "[Page "

// Extract reads every page of a PDF. Pages without a text layer are kept as a
// placeholder so page numbering in the full text stays intact.
func Extract(data []byte) (*Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	raw := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			raw = append(raw, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			raw = append(raw, "")
			continue
		}
		raw = append(raw, text)
	}

	return fromPages(raw)
}

// FromText wraps text that was already extracted upstream, with form feeds
// as page breaks.
func FromText(text string) (*Document, error) {
	return fromPages(strings.Split(text, "\f"))
}

func fromPages(raw []string) (*Document, error) {
	doc := &Document{
		PageCount: len(raw),
		Pages:     make([]string, 0, len(raw)),
		Sections:  map[string]string{},
	}

	extractable := 0
	for i, text := range raw {
		if strings.TrimSpace(text) == "" {
			doc.Pages = append(doc.Pages, fmt.Sprintf("%s%d: No extractable text — may be scanned]", placeholderPrefix, i+1))
			continue
		}
		doc.Pages = append(doc.Pages, CleanPageText(text))
		extractable++
	}
	doc.FullText = strings.Join(doc.Pages, "\n\n")

	if extractable == 0 {
		doc.IsImageBased = true
		return doc, ErrImageBased
	}

	doc.Sections = ExtractSections(doc.FullText)
	return doc, nil
}

var (
	pageOfLine   = regexp.MustCompile(`(?im)^[ \t]*page[ \t]+\d+[ \t]+of[ \t]+\d+[ \t]*$\n?`)
	numberLine   = regexp.MustCompile(`(?m)^[ \t]*\d+[ \t]*$\n?`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
	manyBlanks   = regexp.MustCompile(`[ \t]{3,}`)
)

// CleanPageText strips page furniture: "Page X of Y" lines, bare page numbers,
// runs of blank lines and wide gaps of spaces.
func CleanPageText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = pageOfLine.ReplaceAllString(text, "")
	text = numberLine.ReplaceAllString(text, "")
	text = manyNewlines.ReplaceAllString(text, "\n\n")
	text = manyBlanks.ReplaceAllString(text, "  ")
	return strings.TrimSpace(text)
}
