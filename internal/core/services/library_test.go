package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelf/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/shelf/internal/core/domain"
)

// metadataExtractor returns canned metadata per file name.
type metadataExtractor struct {
	meta map[string]domain.Metadata
	errs map[string]error
}

func (m *metadataExtractor) Metadata(_ context.Context, path string) (domain.Metadata, error) {
	name := filepath.Base(path)
	if err, ok := m.errs[name]; ok {
		return domain.Metadata{}, err
	}
	if meta, ok := m.meta[name]; ok {
		return meta, nil
	}
	format, _ := domain.FormatFromPath(path)
	return domain.DefaultMetadata(path, format, 0), nil
}

func (m *metadataExtractor) Text(context.Context, string) (string, error) {
	return "", domain.ErrUnsupportedType
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("content of "+name), 0644))
	}
}

func newTestLibrary(t *testing.T, root string, formats ...domain.Format) (*LibraryService, *memory.DocumentStore) {
	t.Helper()
	store := memory.NewDocumentStore()
	extractor := &metadataExtractor{
		meta: map[string]domain.Metadata{
			"dune.epub": {Title: "Dune", Author: "Frank Herbert", Format: domain.FormatEPUB, Size: 15},
		},
		errs: map[string]error{
			"broken.pdf": errors.New("corrupt xref table"),
		},
	}
	svc := NewLibraryService(store, extractor, domain.LibrarySettings{Path: root, Formats: formats})
	return svc, store
}

func TestLibraryService_Scan(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"dune.epub",
		"broken.pdf",
		"nested/deep/manual.PDF",
		"kindle.azw3",
		"notes.txt",
		".hidden/secret.pdf",
	)
	svc, store := newTestLibrary(t, root)

	report, err := svc.Scan(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Added, 4)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 1, report.Ignored)

	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4)

	dune, err := store.FindByPath(context.Background(), filepath.Join(root, "dune.epub"))
	require.NoError(t, err)
	assert.Equal(t, "Dune", dune.Title)
	assert.Equal(t, "Frank Herbert", dune.Author)
	assert.Equal(t, domain.FormatEPUB, dune.Format)

	broken, err := store.FindByPath(context.Background(), filepath.Join(root, "broken.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "broken", broken.Title, "metadata failure falls back to the filename")
	assert.Equal(t, int64(len("content of broken.pdf")), broken.Size)

	_, err = store.FindByPath(context.Background(), filepath.Join(root, ".hidden", "secret.pdf"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLibraryService_Scan_SkipsIndexedFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.pdf", "b.epub")
	svc, _ := newTestLibrary(t, root)

	first, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, first.Added, 2)

	writeFiles(t, root, "c.pdf")
	second, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, second.Added, 1)
	assert.Equal(t, filepath.Join(root, "c.pdf"), second.Added[0].Path)
	assert.Equal(t, 2, second.Skipped)
}

func TestLibraryService_Scan_FormatFilter(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.pdf", "b.epub", "c.azw3")
	svc, _ := newTestLibrary(t, root, domain.FormatEPUB)

	report, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Added, 1)
	assert.Equal(t, domain.FormatEPUB, report.Added[0].Format)
	assert.Equal(t, 2, report.Ignored)
}

func TestLibraryService_Scan_CreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not", "yet")
	svc, _ := newTestLibrary(t, root)

	report, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Added)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLibraryService_Scan_NoPath(t *testing.T) {
	svc, _ := newTestLibrary(t, "")

	_, err := svc.Scan(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLibraryService_ListAndFormats(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.pdf", "b.epub", "c.pdf")
	svc, _ := newTestLibrary(t, root)
	ctx := context.Background()

	_, err := svc.Scan(ctx)
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pdfs, err := svc.List(ctx, domain.FormatPDF)
	require.NoError(t, err)
	assert.Len(t, pdfs, 2)

	_, err = svc.List(ctx, domain.Format("mobi"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	formats, err := svc.Formats(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Format{domain.FormatPDF, domain.FormatEPUB}, formats)
}

func TestLibraryService_Open(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "dune.epub")
	svc, store := newTestLibrary(t, root)
	ctx := context.Background()

	report, err := svc.Scan(ctx)
	require.NoError(t, err)
	id := report.Added[0].ID

	doc, mime, err := svc.Open(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "application/epub+zip", mime)
	require.NotNil(t, doc.LastAccessed)

	stored, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastAccessed)
}

func TestLibraryService_Open_FileRemoved(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "gone.pdf")
	svc, _ := newTestLibrary(t, root)
	ctx := context.Background()

	report, err := svc.Scan(ctx)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, "gone.pdf")))

	_, _, err = svc.Open(ctx, report.Added[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = svc.Open(ctx, "unknown-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
