package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelf/internal/core/domain"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Index new books in the library folder",
	Long: `Walks the library folder and indexes every PDF, EPUB and AZW3 file that
is not indexed yet. Hidden folders are skipped. Already indexed files are
left untouched.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Browse indexed books",
	Long:  `List, inspect and open the books in the index.`,
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed books",
	Args:  cobra.NoArgs,
	RunE:  runBooksList,
}

var booksShowCmd = &cobra.Command{
	Use:   "show [book-id]",
	Short: "Show book details",
	Args:  cobra.ExactArgs(1),
	RunE:  runBooksShow,
}

var booksFormatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List formats present in the library",
	Args:  cobra.NoArgs,
	RunE:  runBooksFormats,
}

var booksOpenCmd = &cobra.Command{
	Use:   "open [book-id]",
	Short: "Resolve a book's file and mark it as accessed",
	Long: `Checks that the book's file still exists, records the access time and
prints the file path with the content type it is served as.`,
	Args: cobra.ExactArgs(1),
	RunE: runBooksOpen,
}

// booksFormat filters the list command.
var booksFormat string

func init() {
	booksListCmd.Flags().StringVarP(&booksFormat, "format", "f", "", "only list books of this format (pdf, epub, azw3)")

	booksCmd.AddCommand(booksListCmd)
	booksCmd.AddCommand(booksShowCmd)
	booksCmd.AddCommand(booksFormatsCmd)
	booksCmd.AddCommand(booksOpenCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(booksCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return fmt.Errorf("scan: %w", errNotConfigured)
	}

	report, err := libraryService.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	for i := range report.Added {
		doc := &report.Added[i]
		cmd.Printf("  + %s %s\n", styles.Title.Render(doc.Title), styles.Muted.Render("("+doc.Format.String()+")"))
	}
	if len(report.Added) > 0 {
		cmd.Println()
	}
	cmd.Println(styles.Success.Render(fmt.Sprintf("Indexed %d new book(s).", len(report.Added))))
	cmd.Printf("%d already indexed, %d unsupported file(s) ignored.\n", report.Skipped, report.Ignored)
	return nil
}

func runBooksList(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return fmt.Errorf("books: %w", errNotConfigured)
	}

	var format domain.Format
	if booksFormat != "" {
		f, ok := domain.ParseFormat(booksFormat)
		if !ok {
			return fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, booksFormat)
		}
		format = f
	}

	docs, err := libraryService.List(cmd.Context(), format)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No books indexed. Run 'shelf scan' first.")
		return nil
	}

	for i := range docs {
		doc := &docs[i]
		cmd.Printf("  %s  %-5s  %s\n", styles.Muted.Render(doc.ID), doc.Format, styles.Title.Render(doc.Title))
	}
	cmd.Printf("\n%d book(s)\n", len(docs))
	return nil
}

func runBooksShow(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return fmt.Errorf("books: %w", errNotConfigured)
	}

	doc, err := libraryService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get book: %w", err)
	}

	cmd.Printf("Book: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	if doc.Author != "" {
		cmd.Printf("  Author:   %s\n", doc.Author)
	}
	cmd.Printf("  Format:   %s\n", doc.Format)
	cmd.Printf("  Size:     %d bytes\n", doc.Size)
	cmd.Printf("  Path:     %s\n", doc.Path)
	cmd.Printf("  Indexed:  %s\n", doc.IndexedAt.Local().Format("2006-01-02 15:04:05"))
	if doc.LastAccessed != nil {
		cmd.Printf("  Opened:   %s\n", doc.LastAccessed.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runBooksFormats(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return fmt.Errorf("books: %w", errNotConfigured)
	}

	formats, err := libraryService.Formats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list formats: %w", err)
	}
	if len(formats) == 0 {
		cmd.Println("No books indexed.")
		return nil
	}
	for _, f := range formats {
		cmd.Println(f.String())
	}
	return nil
}

func runBooksOpen(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return fmt.Errorf("books: %w", errNotConfigured)
	}

	doc, mime, err := libraryService.Open(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to open book: %w", err)
	}

	cmd.Println(doc.Path)
	cmd.Println(styles.Muted.Render(mime))
	return nil
}
