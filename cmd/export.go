package cmd

import (
	"fmt"

	"github.com/mdbook-reader/reader/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string
	var format string
	var withContent bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the assembled chapter table",
		Long: `Assembles the book and writes one row per chapter (id, order, title, file
name, slug, word count and optionally the Markdown body) as JSONL, YAML or Parquet.`,
		Example: `  # Export to JSONL
  reader export --output chapters.jsonl

  # Export to Parquet with chapter bodies
  reader export --output chapters.parquet --content-body`,
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := opts.bookLoader().Load(cmd.Context())
			if err != nil {
				return err
			}

			if err := export.Write(book, output, format, withContent); err != nil {
				return fmt.Errorf("failed to export chapters: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d chapters to %s\n", len(book.Chapters), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "chapters.jsonl", "Output file")
	cmd.Flags().StringVar(&format, "format", "", "Output format: jsonl, yaml or parquet (defaults to the output extension)")
	cmd.Flags().BoolVar(&withContent, "content-body", false, "Include chapter Markdown in the export")

	return cmd
}
