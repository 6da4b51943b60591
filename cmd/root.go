package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mdbook-reader/reader/internal/assembler"
	"github.com/mdbook-reader/reader/internal/config"
	"github.com/mdbook-reader/reader/internal/content"
	"github.com/mdbook-reader/reader/internal/loader"
)

// rootOptions are shared by every subcommand
type rootOptions struct {
	configFile string
	content    string
	scan       bool
	verbose    bool

	settings config.Settings
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "reader",
		Short: "Markdown book reader",
		Long: `Reader assembles a directory of Markdown chapters into a book and serves it.

Chapters are discovered from an index.json manifest when present, otherwise by
probing common file names such as chapter1.md, ch1.md, 01.md or preface.md.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			settings, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("content") {
				settings.Content = opts.content
			}
			if cmd.Flags().Changed("scan") {
				settings.ScanDirectory = opts.scan
			}
			if opts.verbose {
				settings.LogLevel = "debug"
			}
			config.SetupLogging(settings.LogLevel)

			opts.settings = settings
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to a YAML settings file")
	cmd.PersistentFlags().StringVarP(&opts.content, "content", "c", "./contents", "Content directory or base URL holding the book")
	cmd.PersistentFlags().BoolVar(&opts.scan, "scan", false, "List the content directory when neither index.json nor probed files are found")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newInspectCmd(opts))
	cmd.AddCommand(newExportCmd(opts))

	return cmd
}

// bookLoader returns the process-wide loader for the configured content
func (o *rootOptions) bookLoader() *loader.Loader {
	return loader.Default(content.New(o.settings.Content), loader.Options{
		Assembler: assembler.Config{ScanDirectory: o.settings.ScanDirectory},
	})
}
