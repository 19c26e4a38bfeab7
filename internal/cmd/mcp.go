package cmd

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/apiform/internal/mcpserver"
)

func newMCPCmd(app *App) *cobra.Command {
	var (
		profile   string
		outDir    string
		exportURL string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP tool server on stdio",
		Long: `Run a Model Context Protocol server over stdin/stdout so agents can fetch
and export data.

Tools:
  fetch_data   Fetch a URL and return the visible table as JSON
  export_data  Export the visible columns and save data.<format> to disk

Logs go to stderr; stdout carries only protocol messages.`,
		Example: `  apiform mcp
  apiform mcp --profile prod --out ./exports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := ConfigFromContext(ctx)

			headers, err := profileHeaders(cfg, profile)
			if err != nil {
				return err
			}
			base := strings.TrimSpace(exportURL)
			if base == "" {
				base = cfg.GetExportURL()
			}

			srv := mcpserver.New(mcpserver.Config{
				Version:    app.Version,
				DefaultURL: cfg.GetURL(),
				OutDir:     outDir,
				Fetcher:    newSourceClient(ctx, 0),
				Exporter:   newExportClient(ctx, base, 0),
				Profile:    headers,
			})

			slog.Debug("mcp server starting", "export_url", base, "out_dir", outDir)
			return srv.Serve(ctx, stdinFromContext(ctx), stdoutFromContext(ctx))
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "Send the headers stored in this profile first")
	cmd.Flags().StringVar(&outDir, "out", ".", "Default directory for exported files")
	cmd.Flags().StringVar(&exportURL, "export-url", "", "Export service base URL")

	return cmd
}
