// Package cli implements the shelf command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelf/internal/adapters/driven/config/file"
	"github.com/custodia-labs/shelf/internal/adapters/driven/metrics"
	"github.com/custodia-labs/shelf/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driving"
	"github.com/custodia-labs/shelf/internal/core/services"
	"github.com/custodia-labs/shelf/internal/extractors"
	"github.com/custodia-labs/shelf/internal/extractors/epub"
	"github.com/custodia-labs/shelf/internal/extractors/pdf"
	"github.com/custodia-labs/shelf/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// annotationStandalone marks commands that run without the store.
const annotationStandalone = "shelf/standalone"

// Global flags.
var (
	verbose   bool
	configDir string
	userFlag  string
)

// Services wired by setupServices, or replaced by tests.
var (
	searchService   driving.SearchService
	libraryService  driving.LibraryService
	settingsService driving.SettingsService
	metricsRecorder *metrics.Recorder
	appSettings     domain.Settings

	closeStore func() error
)

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Search inside your ebook library",
	Long: `shelf indexes the PDF, EPUB and AZW3 files in a library folder and
searches their full text. Every search is ranked by how densely the query
occurs in each book and kept in a per-user history.

Run 'shelf scan' to index the library, then 'shelf search <query>'.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: teardownServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration and data directory (default ~/.shelf)")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "user owning searches (default from settings)")
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// setupServices builds the application from the configuration directory.
// Services that are already set, as in tests, are left alone.
func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if !needsServices(cmd) {
		return nil
	}
	if searchService != nil && libraryService != nil && settingsService != nil {
		return nil
	}

	baseDir, err := resolveBaseDir()
	if err != nil {
		return err
	}

	configStore, err := file.NewConfigStore(baseDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	settings := services.NewSettingsService(configStore, filepath.Join(baseDir, "library"))
	appSettings, err = settings.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	store, err := sqlite.NewStore(filepath.Join(baseDir, "data"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	registry := extractors.NewRegistry(
		pdf.New(appSettings.Extract.PageCap),
		epub.New(),
	)
	extractor := extractors.WithTimeout(registry, appSettings.Extract.Timeout)

	metricsRecorder = metrics.NewRecorder()
	settingsService = settings
	searchService = services.NewSearchService(
		store.DocumentStore(), store.SearchStore(), extractor, appSettings.Search, metricsRecorder,
	)
	libraryService = services.NewLibraryService(store.DocumentStore(), extractor, appSettings.Library)
	closeStore = store.Close

	logger.Debug("config: %s", configStore.Path())
	logger.Debug("database: %s", store.Path())
	logger.Debug("library: %s", appSettings.Library.Path)
	return nil
}

// needsServices reports whether cmd uses the store. Help, completion and
// annotated commands do not.
func needsServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationStandalone] != "" {
			return false
		}
		switch c.Name() {
		case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "completion":
			return false
		}
	}
	return true
}

func teardownServices(_ *cobra.Command, _ []string) error {
	if closeStore == nil {
		return nil
	}
	err := closeStore()
	closeStore = nil
	searchService, libraryService, settingsService = nil, nil, nil
	return err
}

func resolveBaseDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".shelf"), nil
}

// currentUser returns the user owning searches made from this invocation.
func currentUser() string {
	if userFlag != "" {
		return userFlag
	}
	if appSettings.Search.UserID != "" {
		return appSettings.Search.UserID
	}
	return domain.DefaultUserID
}

// errNotConfigured is returned when a command runs without its service.
var errNotConfigured = errors.New("service not configured")
