// Package epub extracts metadata and text from EPUB files.
//
// An EPUB is a zip container holding an OPF package document and XHTML
// content items. Text is read in spine order and reduced to plain text
// with a single tag-removal pass, which is adequate for search but not
// for rendering.
package epub

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
	"github.com/custodia-labs/shelf/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.FormatExtractor = (*Extractor)(nil)

var (
	tagRegex      = regexp.MustCompile(`<[^<]+?>`)
	charsetRegex  = regexp.MustCompile(`(?i)(?:encoding|charset)\s*=\s*["']?([A-Za-z0-9._:-]+)`)
	utf8BOM       = []byte{0xEF, 0xBB, 0xBF}
	charsetWindow = 1024
)

// Extractor implements driven.FormatExtractor for EPUB files.
type Extractor struct{}

// New creates an EPUB extractor.
func New() *Extractor {
	return &Extractor{}
}

// Format returns domain.FormatEPUB.
func (e *Extractor) Format() domain.Format {
	return domain.FormatEPUB
}

// Metadata reads the Dublin Core title and first creator from the package
// document. Missing fields are left empty.
func (e *Extractor) Metadata(_ context.Context, path string) (domain.Metadata, error) {
	meta := domain.Metadata{Format: domain.FormatEPUB}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return meta, fmt.Errorf("opening epub: %w", err)
	}
	defer zr.Close()

	pkg, _, err := readPackage(&zr.Reader)
	if err != nil {
		return meta, err
	}

	meta.Title = firstNonEmpty(pkg.Metadata.Titles)
	meta.Author = firstNonEmpty(pkg.Metadata.Creators)
	return meta, nil
}

// Text concatenates the text of every content item in reading order.
// Items that cannot be read or decoded are skipped.
func (e *Extractor) Text(_ context.Context, path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", domain.ErrExtractionFailed, path, err)
	}
	defer zr.Close()

	items := contentItems(&zr.Reader, path)

	var b strings.Builder
	for _, f := range items {
		raw, err := readZipFile(f)
		if err != nil {
			logger.Debug("Skipping %s in %s: %v", f.Name, path, err)
			continue
		}
		content, ok := decode(raw)
		if !ok {
			logger.Debug("Skipping undecodable item %s in %s", f.Name, path)
			continue
		}
		b.WriteString(stripTags(content))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// contentItems returns the XHTML items of the book in reading order.
// Without a readable package document, every HTML file in the archive is
// used in archive order.
func contentItems(zr *zip.Reader, path string) []*zip.File {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	pkg, opfPath, err := readPackage(zr)
	if err != nil {
		logger.Debug("No package document in %s, using archive order: %v", path, err)
		var items []*zip.File
		for _, f := range zr.File {
			if isHTMLName(f.Name) {
				items = append(items, f)
			}
		}
		return items
	}

	manifest := make(map[string]manifestItem, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		manifest[item.ID] = item
	}

	seen := make(map[string]bool)
	var items []*zip.File
	add := func(item manifestItem) {
		if !item.isContent() {
			return
		}
		name := resolveHref(opfPath, item.Href)
		f, ok := files[name]
		if !ok || seen[name] {
			return
		}
		seen[name] = true
		items = append(items, f)
	}

	for _, ref := range pkg.Spine {
		if item, ok := manifest[ref.IDRef]; ok {
			add(item)
		}
	}
	for _, item := range pkg.Manifest {
		add(item)
	}
	return items
}

// stripTags replaces markup with spaces and resolves character references.
func stripTags(content string) string {
	return html.UnescapeString(tagRegex.ReplaceAllString(content, " "))
}

// decode returns raw as UTF-8 text. Valid UTF-8 is used as is; otherwise
// the charset declared in the item is used. Content in an unknown or
// undeclared encoding is reported as undecodable.
func decode(raw []byte) (string, bool) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	charset := declaredCharset(raw)
	if charset == "" || isUTF8Label(charset) {
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func declaredCharset(raw []byte) string {
	head := raw
	if len(head) > charsetWindow {
		head = head[:charsetWindow]
	}
	m := charsetRegex.FindSubmatch(head)
	if m == nil {
		return ""
	}
	return string(m[1])
}

func isUTF8Label(charset string) bool {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8":
		return true
	default:
		return false
	}
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
