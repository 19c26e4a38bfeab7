package cmd

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/apiform/internal/debug"
	"github.com/salmonumbrella/apiform/internal/logging"
	"github.com/salmonumbrella/apiform/internal/source"
	"github.com/salmonumbrella/apiform/internal/ui"
	"github.com/salmonumbrella/apiform/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		addr         string
		logJSON      bool
		profile      string
		records      string
		requireField string
		exportURL    string
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve [url]",
		Short: "Serve the fetch/export form in the browser",
		Long: `Serve starts a local web server with the apiform form: an API URL, key/value
header rows, Fetch Data, a column checkbox per field, Invert Selection, and
an Export Data menu.

Fetch and export requests run in the background; whichever response
arrives last decides what the form shows. Failures appear as an alert.`,
		Example: `  apiform serve
  apiform serve https://api.example.com/users --addr 127.0.0.1:9000
  apiform serve --profile prod --log-json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := ConfigFromContext(ctx)
			if logJSON {
				logging.SetupJSON(debug.IsDebug(ctx), stderrFromContext(ctx))
			}

			headers, err := profileHeaders(cfg, profile)
			if err != nil {
				return err
			}

			base := strings.TrimSpace(exportURL)
			if base == "" {
				base = cfg.GetExportURL()
			}

			srv, err := web.New(web.Config{
				URL:      resolveURL(cfg, args),
				Fetcher:  newSourceClient(ctx, timeout),
				Exporter: newExportClient(ctx, base, timeout),
				Profile:  headers,
				Options: source.Options{
					Records:      strings.TrimSpace(records),
					RequireField: strings.TrimSpace(requireField),
				},
				Logger: slog.Default(),
			})
			if err != nil {
				return err
			}

			ui.FromContext(ctx).Info("Serving apiform on %s", displayAddr(addr))
			slog.Info("web server starting", "addr", addr, "export_url", base)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log as JSON instead of text")
	cmd.Flags().StringVar(&profile, "profile", "", "Send the headers stored in this profile first")
	cmd.Flags().StringVar(&records, "records", "", "JSONPath to the rows inside the response (e.g. $.data)")
	cmd.Flags().StringVar(&requireField, "require-field", "", "Drop rows that lack this field")
	cmd.Flags().StringVar(&exportURL, "export-url", "", "Export service base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Request timeout (0 = none)")

	return cmd
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
