package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the library, search, extraction and server settings.

Settings are stored in config.toml inside the configuration directory.`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Validate and store a single setting. Changes apply from the next command.

Keys:
  library.path           folder scanned for books
  library.formats        comma-separated formats to index (pdf, epub, azw3)
  search.max_results     default cap on results per search
  search.history_limit   default number of searches listed by history
  search.workers         upper bound on books evaluated concurrently
  search.cache_entries   books whose text is kept during one search
  search.user            user owning searches made from the command line
  extract.timeout        time allowed to extract one book, e.g. 60s
  extract.page_cap       PDF pages read before falling back to whole-file text
  extract.max_chars      characters of text kept per book
  server.addr            listen address for 'shelf serve'`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	formats := make([]string, len(settings.Library.Formats))
	for i, f := range settings.Library.Formats {
		formats[i] = f.String()
	}

	cmd.Println(styles.Heading.Render("[Library]"))
	cmd.Printf("  Path:           %s\n", settings.Library.Path)
	cmd.Printf("  Formats:        %s\n", strings.Join(formats, ", "))
	cmd.Println()

	cmd.Println(styles.Heading.Render("[Search]"))
	cmd.Printf("  Max results:    %d\n", settings.Search.MaxResults)
	cmd.Printf("  History limit:  %d\n", settings.Search.HistoryLimit)
	cmd.Printf("  Workers:        %d (effective %d)\n", settings.Search.Workers, settings.Search.WorkerCount())
	cmd.Printf("  Cache entries:  %d\n", settings.Search.CacheEntries)
	cmd.Printf("  User:           %s\n", settings.Search.UserID)
	cmd.Println()

	cmd.Println(styles.Heading.Render("[Extract]"))
	cmd.Printf("  Timeout:        %s\n", settings.Extract.Timeout)
	cmd.Printf("  Page cap:       %d\n", settings.Extract.PageCap)
	cmd.Printf("  Max chars:      %d\n", settings.Search.MaxChars)
	cmd.Println()

	cmd.Println(styles.Heading.Render("[Server]"))
	cmd.Printf("  Address:        %s\n", settings.Server.Addr)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Println(styles.Success.Render(fmt.Sprintf("Set %s = %s", key, value)))
	return nil
}
