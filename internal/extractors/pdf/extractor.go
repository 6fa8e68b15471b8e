// Package pdf extracts metadata and text from PDF files.
//
// Documents within the page cap are read whole with pdfcpu, which runs the
// text operators of every page's content stream and keeps line breaks and
// word gaps. Longer documents, and documents whose whole read fails or
// yields unreadable text such as glyph IDs from composite fonts, are read
// page by page up to the cap with github.com/ledongthuc/pdf, which decodes
// font encodings. Metadata comes from the document information dictionary
// via pdfcpu.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
	"github.com/custodia-labs/shelf/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.FormatExtractor = (*Extractor)(nil)

// document is an opened PDF.
type document interface {
	// NumPage returns the number of pages.
	NumPage() int

	// PageText returns the text of the 1-based page i.
	PageText(i int) (string, error)

	// PlainText returns the text of the whole document.
	PlainText() (string, error)

	Close() error
}

// opener opens the PDF at path.
type opener func(path string) (document, error)

// infoReader reads title and author from the PDF at path.
type infoReader func(path string) (title, author string, err error)

// Extractor implements driven.FormatExtractor for PDF files.
type Extractor struct {
	pageCap  int
	open     opener
	readInfo infoReader
}

// New creates a PDF extractor that reads at most pageCap pages on the
// page-by-page path. A pageCap <= 0 uses domain.DefaultPageCap.
func New(pageCap int) *Extractor {
	if pageCap <= 0 {
		pageCap = domain.DefaultPageCap
	}
	return &Extractor{
		pageCap:  pageCap,
		open:     openDocument,
		readInfo: readDocumentInfo,
	}
}

// Format returns domain.FormatPDF.
func (e *Extractor) Format() domain.Format {
	return domain.FormatPDF
}

// Metadata reads the embedded title and author. A failure is logged and
// reported as empty metadata so the caller keeps its defaults.
func (e *Extractor) Metadata(_ context.Context, path string) (domain.Metadata, error) {
	title, author, err := e.readInfo(path)
	if err != nil {
		logger.Warn("Reading PDF info from %s: %v", path, err)
		return domain.Metadata{Format: domain.FormatPDF}, nil
	}
	return domain.Metadata{
		Title:  strings.TrimSpace(title),
		Author: strings.TrimSpace(author),
		Format: domain.FormatPDF,
	}, nil
}

// Text extracts the document text. Only a failure to open the file is
// returned as an error; every later failure yields best-effort text.
func (e *Extractor) Text(_ context.Context, path string) (string, error) {
	doc, err := e.open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", domain.ErrExtractionFailed, path, err)
	}
	defer doc.Close()

	pages, err := pageCount(doc)
	if err != nil {
		return "", fmt.Errorf("%w: counting pages of %s: %v", domain.ErrExtractionFailed, path, err)
	}

	if pages > e.pageCap {
		logger.Debug("PDF %s has %d pages, reading first %d", path, pages, e.pageCap)
		return e.readPages(doc, path, pages), nil
	}

	text, err := plainText(doc)
	if err != nil {
		logger.Warn("Whole-document read of %s failed, reading pages: %v", path, err)
		return e.readPages(doc, path, pages), nil
	}
	return text, nil
}

// readPages concatenates the text of the first pageCap pages with newline
// separators. Pages that fail are skipped.
func (e *Extractor) readPages(doc document, path string, pages int) string {
	limit := pages
	if limit > e.pageCap {
		limit = e.pageCap
	}

	var b strings.Builder
	for i := 1; i <= limit; i++ {
		text, err := pageText(doc, i)
		if err != nil {
			logger.Debug("Skipping page %d of %s: %v", i, path, err)
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}

func pageCount(doc document) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return doc.NumPage(), nil
}

func pageText(doc document, i int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return doc.PageText(i)
}

func plainText(doc document) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return doc.PlainText()
}
