package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelf/internal/core/domain"
)

var (
	searchMaxResults int
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the full text of every indexed book",
	Long: `Searches the text of every indexed book for a literal, case-insensitive
phrase. Books are ranked by how often the phrase occurs relative to their
length, and each result shows the text around the first occurrence.

The search and its results are saved to your history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchMaxResults, "max-results", "n", 0,
		fmt.Sprintf("maximum number of results (default %d)", domain.DefaultMaxResults))
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return fmt.Errorf("search: %w", errNotConfigured)
	}

	maxResults := searchMaxResults
	if maxResults <= 0 {
		maxResults = appSettings.Search.MaxResults
	}

	req := domain.SearchRequest{
		Query:      strings.Join(args, " "),
		UserID:     currentUser(),
		MaxResults: maxResults,
	}

	record, results, err := searchService.Search(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, record, results)
	}

	outputSearchResults(cmd, record, results)
	return nil
}

// searchOutput is the JSON shape of one search.
type searchOutput struct {
	*domain.QueryRecord
	Results []domain.SearchResult `json:"results"`
}

func outputSearchJSON(cmd *cobra.Command, record *domain.QueryRecord, results []domain.SearchResult) error {
	if results == nil {
		results = []domain.SearchResult{}
	}
	data, err := json.MarshalIndent(searchOutput{QueryRecord: record, Results: results}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchResults(cmd *cobra.Command, record *domain.QueryRecord, results []domain.SearchResult) {
	if len(results) == 0 {
		cmd.Printf("No books contain %q.\n", record.Query)
		cmd.Println(styles.Muted.Render("Search " + record.ID))
		return
	}

	cmd.Println(styles.Heading.Render(fmt.Sprintf("%d result(s) for %q", len(results), record.Query)))
	cmd.Println()

	width := terminalWidth()
	for i := range results {
		r := &results[i]
		cmd.Printf("  [%d] %s %s\n", i+1, styles.Title.Render(r.Document.Title), styles.Score.Render(fmt.Sprintf("(%.4f)", r.Score)))

		byline := r.Document.Format.String()
		if r.Document.Author != "" {
			byline = r.Document.Author + " · " + byline
		}
		cmd.Printf("      %s\n", styles.Muted.Render(byline))
		cmd.Printf("      %s\n", styles.Muted.Render(r.Document.Path))
		if r.Snippet != "" {
			cmd.Println(indentLines(renderSnippet(r.Snippet, width), indent))
		}
		cmd.Println()
	}

	cmd.Println(styles.Muted.Render("Search " + record.ID))
}
