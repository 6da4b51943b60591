package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mdbook-reader/reader/internal/handlers"
	"github.com/mdbook-reader/reader/internal/render"
	"github.com/mdbook-reader/reader/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string
	var staticDir string
	var safeMode bool
	var hardWraps bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the reader interface",
		Long: `Starts the reader web interface on the specified port.

The book is assembled once on first request and cached for the lifetime of the
process. Reading progress is kept per session and per chapter.`,
		Example: `  # Serve ./contents on default port 8888
  reader serve

  # Serve a book published on a static host
  reader serve --content https://example.com/book/contents --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := opts.settings
			if cmd.Flags().Changed("port") {
				settings.Port = port
			}
			if cmd.Flags().Changed("static") {
				settings.StaticDir = staticDir
			}
			if cmd.Flags().Changed("safe") {
				settings.SafeMode = safeMode
			}
			if cmd.Flags().Changed("hard-wraps") {
				settings.HardWraps = hardWraps
			}

			sessions := storage.New(settings.ProgressDelay)
			defer sessions.Flush()

			handler := handlers.New(handlers.Config{
				Loader:    opts.bookLoader(),
				Sessions:  sessions,
				Renderer:  render.New(render.Options{SafeMode: settings.SafeMode, HardWraps: settings.HardWraps}),
				StaticDir: settings.StaticDir,
			})

			addr := ":" + settings.Port
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Routes(),
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Reader interface available", "addr", addr, "url", "http://localhost"+addr, "content", settings.Content)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&staticDir, "static", "static", "Directory holding the reader shell")
	cmd.Flags().BoolVar(&safeMode, "safe", false, "Drop raw HTML embedded in chapters")
	cmd.Flags().BoolVar(&hardWraps, "hard-wraps", false, "Render single line breaks inside paragraphs as <br>")

	return cmd
}
