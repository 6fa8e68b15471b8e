package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
	"github.com/custodia-labs/shelf/internal/core/ports/driving"
	"github.com/custodia-labs/shelf/internal/logger"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// LibraryService discovers ebook files and serves the indexed library.
type LibraryService struct {
	docStore  driven.DocumentStore
	extractor driven.Extractor
	settings  domain.LibrarySettings

	newID func() string
	now   func() time.Time
}

// NewLibraryService creates a library service rooted at settings.Path.
func NewLibraryService(
	docStore driven.DocumentStore,
	extractor driven.Extractor,
	settings domain.LibrarySettings,
) *LibraryService {
	if len(settings.Formats) == 0 {
		settings.Formats = domain.AllFormats()
	}
	return &LibraryService{
		docStore:  docStore,
		extractor: extractor,
		settings:  settings,
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Scan walks the library root, creating it if missing, and indexes every
// supported file that is not indexed yet. New documents are stored in a
// single batch.
func (s *LibraryService) Scan(ctx context.Context) (*driving.ScanReport, error) {
	logger.Section("Library Scan")

	root := s.settings.Path
	if root == "" {
		return nil, fmt.Errorf("%w: library path not configured", domain.ErrInvalidInput)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving library path: %w", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}
	logger.Debug("Library root: %s, formats: %v", root, s.settings.Formats)

	report := &driving.ScanReport{}
	var added []domain.Document

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		format, ok := domain.FormatFromPath(path)
		if !ok || !s.settings.SupportsFormat(format) {
			report.Ignored++
			return nil
		}

		_, err = s.docStore.FindByPath(ctx, path)
		switch {
		case err == nil:
			report.Skipped++
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("looking up %s: %w", path, err)
		}

		added = append(added, s.newDocument(ctx, path, format, d))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning library: %w", err)
	}

	if len(added) > 0 {
		if err := s.docStore.CreateBatch(ctx, added); err != nil {
			return nil, fmt.Errorf("saving documents: %w", err)
		}
	}
	report.Added = added

	logger.Info("Indexed %d new documents (%d already indexed, %d ignored)",
		len(added), report.Skipped, report.Ignored)
	return report, nil
}

// newDocument builds a document for path from its extracted metadata,
// falling back to filesystem defaults when extraction fails.
func (s *LibraryService) newDocument(ctx context.Context, path string, format domain.Format, d fs.DirEntry) domain.Document {
	meta, err := s.extractor.Metadata(ctx, path)
	if err != nil {
		logger.Warn("Reading metadata from %s: %v", path, err)
		var size int64
		if info, infoErr := d.Info(); infoErr == nil {
			size = info.Size()
		}
		meta = domain.DefaultMetadata(path, format, size)
	}
	if meta.Title == "" {
		meta.Title = domain.FilenameStem(path)
	}

	return domain.Document{
		ID:        s.newID(),
		Path:      path,
		Format:    format,
		Size:      meta.Size,
		Title:     meta.Title,
		Author:    meta.Author,
		IndexedAt: s.now(),
	}
}

// List returns every document, or only those of format when it is set.
func (s *LibraryService) List(ctx context.Context, format domain.Format) ([]domain.Document, error) {
	if format == "" {
		return s.docStore.ListAll(ctx)
	}
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, format)
	}
	return s.docStore.ListByFormat(ctx, format)
}

// Get retrieves a document by ID.
func (s *LibraryService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.docStore.Get(ctx, id)
}

// Formats returns the distinct formats present in the library.
func (s *LibraryService) Formats(ctx context.Context) ([]domain.Format, error) {
	return s.docStore.Formats(ctx)
}

// Open verifies the document's file is still on disk and records the access.
func (s *LibraryService) Open(ctx context.Context, id string) (*domain.Document, string, error) {
	doc, err := s.docStore.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if _, err := os.Stat(doc.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: file %s", domain.ErrNotFound, doc.Path)
		}
		return nil, "", fmt.Errorf("checking file: %w", err)
	}

	at := s.now()
	if err := s.docStore.Touch(ctx, id, at); err != nil {
		return nil, "", fmt.Errorf("recording access: %w", err)
	}
	doc.LastAccessed = &at

	return doc, doc.Format.MIMEType(), nil
}
