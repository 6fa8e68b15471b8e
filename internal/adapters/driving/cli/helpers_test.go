package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelf/internal/adapters/driven/config/file"
	"github.com/custodia-labs/shelf/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/services"
)

// fileTextExtractor returns each file's bytes as its text.
type fileTextExtractor struct{}

func (fileTextExtractor) Metadata(_ context.Context, path string) (domain.Metadata, error) {
	format, _ := domain.FormatFromPath(path)
	info, err := os.Stat(path)
	if err != nil {
		return domain.Metadata{}, err
	}
	return domain.DefaultMetadata(path, format, info.Size()), nil
}

func (fileTextExtractor) Text(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

// testLibrary is the library folder used by setupTestServices.
var testLibrary string

// setupTestServices wires in-memory services over a temporary library
// holding files. It returns a cleanup function that resets all globals.
func setupTestServices(t *testing.T, files map[string]string) func() {
	t.Helper()

	root := t.TempDir()
	library := filepath.Join(root, "library")
	require.NoError(t, os.MkdirAll(library, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(library, name), []byte(content), 0644))
	}

	configStore, err := file.NewConfigStore(filepath.Join(root, "config"))
	require.NoError(t, err)
	settings := services.NewSettingsService(configStore, library)
	appSettings, err = settings.Get()
	require.NoError(t, err)

	docs := memory.NewDocumentStore()
	searches := memory.NewSearchStore()
	extractor := fileTextExtractor{}

	settingsService = settings
	libraryService = services.NewLibraryService(docs, extractor, appSettings.Library)
	searchService = services.NewSearchService(docs, searches, extractor, appSettings.Search, nil)
	testLibrary = library

	return func() {
		searchService = nil
		libraryService = nil
		settingsService = nil
		metricsRecorder = nil
		appSettings = domain.Settings{}
		testLibrary = ""

		userFlag = ""
		configDir = ""
		searchMaxResults = 0
		searchJSON = false
		historyLimit = 0
		booksFormat = ""
		serveAddr = ""
		serveSearchRate = 0
		serveSearchBurst = 0
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
