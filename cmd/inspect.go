package cmd

import (
	"fmt"
	"io"

	"github.com/mdbook-reader/reader/internal/export"
	"github.com/mdbook-reader/reader/internal/handlers"
	"github.com/mdbook-reader/reader/internal/loader"
	"github.com/mdbook-reader/reader/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var showSkipped bool
	var from string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Assemble the book and print its table of contents",
		Long: `Assembles the book the same way the server does and prints a summary:
the discovery strategy used, every chapter with its order and title, and
optionally the files that were tried but not found.`,
		Example: `  # Inspect ./contents
  reader inspect

  # Show which probed files were missing
  reader inspect --content ./book --skipped

  # Inspect a previous export instead of the content root
  reader inspect --from chapters.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from != "" {
				records, err := export.Read(from)
				if err != nil {
					return err
				}
				printRecords(cmd.OutOrStdout(), from, records)
				return nil
			}

			l := opts.bookLoader()
			book, err := l.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("%w\n\n%s", err, handlers.Remediation)
			}

			printBook(cmd.OutOrStdout(), book, l, showSkipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSkipped, "skipped", false, "List files that were tried but could not be loaded")
	cmd.Flags().StringVar(&from, "from", "", "Read the chapter table from an export file (.jsonl, .yaml, .parquet)")

	return cmd
}

func printBook(w io.Writer, book *models.Book, l *loader.Loader, showSkipped bool) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "%s\n", book.Title)
	if book.Author != "" {
		fmt.Fprintf(w, "by %s\n", book.Author)
	}
	if book.Description != "" {
		fmt.Fprintf(w, "%s\n", book.Description)
	}
	fmt.Fprintln(w, "========================================")

	report := l.Report()
	if report != nil && report.Strategy != "" {
		fmt.Fprintf(w, "Strategy:   %s\n", report.Strategy)
		fmt.Fprintf(w, "Attempted:  %d\n", report.Attempted)
		fmt.Fprintf(w, "Loaded:     %d\n", report.Loaded)
		fmt.Fprintln(w)
	}

	if book.Empty() {
		fmt.Fprintln(w, "No content found.")
		fmt.Fprintln(w, handlers.Remediation)
		return
	}

	fmt.Fprintln(w, "Chapters:")
	for _, ch := range book.Chapters {
		fmt.Fprintf(w, "  %3d. %s (%s)\n", ch.Order, ch.Title, ch.FileName)
	}

	if showSkipped && report != nil && len(report.Skipped) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Skipped (%d):\n", len(report.Skipped))
		for _, err := range multierr.Errors(report.Misses) {
			fmt.Fprintf(w, "  %v\n", err)
		}
	}
	fmt.Fprintln(w, "========================================")
}

func printRecords(w io.Writer, path string, records []export.ChapterRecord) {
	fmt.Fprintln(w, "========================================")
	if len(records) > 0 && records[0].BookTitle != "" {
		fmt.Fprintf(w, "%s\n", records[0].BookTitle)
	}
	fmt.Fprintf(w, "Export:     %s\n", path)
	fmt.Fprintf(w, "Chapters:   %d\n", len(records))
	fmt.Fprintln(w, "========================================")

	var words int64
	for _, r := range records {
		fmt.Fprintf(w, "  %3d. %s (%s, %d words)\n", r.Order, r.Title, r.FileName, r.Words)
		words += r.Words
	}
	fmt.Fprintf(w, "Total words: %d\n", words)
}
