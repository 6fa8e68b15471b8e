package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage past searches",
	Long:  `List, replay and delete the searches saved in your history.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [search-id]",
	Short: "Show a past search with its results",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [search-id]",
	Short: "Delete a past search",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

// historyLimit caps the list command. Zero uses the configured limit.
var historyLimit int

func init() {
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "l", 0, "maximum number of searches to list")
	historyShowCmd.Flags().BoolVar(&searchJSON, "json", false, "output the search as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return fmt.Errorf("history: %w", errNotConfigured)
	}

	limit := historyLimit
	if limit <= 0 {
		limit = appSettings.Search.HistoryLimit
	}

	records, err := searchService.History(cmd.Context(), currentUser(), limit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(records) == 0 {
		cmd.Println("No searches yet.")
		return nil
	}

	for i := range records {
		r := &records[i]
		cmd.Printf("  %s  %s  %-30q %s\n",
			styles.Muted.Render(r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Query,
			styles.Score.Render(fmt.Sprintf("%d result(s)", r.ResultCount)),
		)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return fmt.Errorf("history: %w", errNotConfigured)
	}

	record, results, err := searchService.Get(cmd.Context(), currentUser(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get search: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, record, results)
	}

	cmd.Println(styles.Muted.Render("Searched " + record.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	outputSearchResults(cmd, record, results)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return fmt.Errorf("history: %w", errNotConfigured)
	}

	if err := searchService.Delete(cmd.Context(), currentUser(), args[0]); err != nil {
		return fmt.Errorf("failed to delete search: %w", err)
	}

	cmd.Printf("Deleted search %s.\n", args[0])
	return nil
}
