package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/apiform/internal/config"
	"github.com/salmonumbrella/apiform/internal/logging"
	"github.com/salmonumbrella/apiform/internal/ui"
)

func newRootCmd(app *App) *cobra.Command {
	// Global flags
	var (
		debugMode     bool
		queryFlag     string
		jsonPathFlag  string
		errorFormat   string
		quietFlag     bool
		failEmptyFlag bool
		compactJSON   bool
	)

	rootCmd := &cobra.Command{
		Use:   "apiform",
		Short: "Fetch JSON from any endpoint and export it as a table",
		Long: `apiform fetches JSON from an HTTP endpoint, shows it as a table with
toggleable columns, and asks an export service for CSV, PDF, JPG, PNG or
JSON files of the visible data.

Use it from the command line, as a local browser form (apiform serve), or
as an MCP tool server for agents (apiform mcp).`,
		Example: `  apiform fetch https://api.example.com/users -H "Authorization: Bearer $TOKEN"
  apiform fetch https://api.example.com/users --records '$.data' --hide password
  apiform export https://api.example.com/users --format pdf --out ./exports
  apiform serve --addr :8080`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Ensure Cobra doesn't emit its own error/usage text; we handle error output centrally.
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			logging.Setup(debugMode, app.Stderr)

			// Config commands load the file themselves so a broken file can still be fixed.
			var cfg *config.Config
			if !isConfigCommand(cmd) {
				loadedCfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				cfg = loadedCfg
			} else {
				cfg = &config.Config{}
			}

			opts, err := parseGlobalOptions(cmd, cfg, app.Stdout, globalFlagInput{
				queryFlag:     queryFlag,
				jsonPathFlag:  jsonPathFlag,
				quietFlag:     quietFlag,
				failEmptyFlag: failEmptyFlag,
				compactJSON:   compactJSON,
				errorFormat:   errorFormat,
			})
			if err != nil {
				return err
			}
			if err := validateGlobalOptions(&opts); err != nil {
				return err
			}

			// Inject parsed global options into context so subcommands can access them.
			ctx := buildRootContext(cmd.Context(), app, cfg, debugMode, opts)
			if opts.queryNormalized && !opts.quiet {
				ui.FromContext(ctx).Warning("Normalized --query by removing \\! (shell escape); use ! without backslash.")
			}
			cmd.SetContext(ctx)
			return nil
		},
	}

	// Errors are printed once, by App.Execute.
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.SetOut(app.Stdout)
	rootCmd.SetErr(app.Stderr)

	// Set version info
	rootCmd.Version = app.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("apiform %s (commit: %s, built: %s)\n", app.Version, app.Commit, app.BuildTime))

	// Global flags
	rootCmd.PersistentFlags().StringP("output", "o", "text", "Output format: text|json|ndjson|jsonl|table|yaml")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Shorthand for --output json")
	rootCmd.PersistentFlags().StringVarP(&queryFlag, "query", "q", "", "JQ expression to filter JSON output")
	rootCmd.PersistentFlags().StringVar(&jsonPathFlag, "jsonpath", "", "Extract a value using JSONPath (e.g. $[0].name)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug output (shows HTTP requests/responses)")
	rootCmd.PersistentFlags().StringVar(&errorFormat, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&failEmptyFlag, "fail-empty", false, "Exit with error when results are empty")
	rootCmd.PersistentFlags().BoolVar(&compactJSON, "compact-json", false, "Output compact JSON (single-line) instead of pretty JSON")

	flagAlias(rootCmd.PersistentFlags(), "fail-empty", "fe")
	flagAlias(rootCmd.PersistentFlags(), "compact-json", "cj")

	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newColumnsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd(app))
	rootCmd.AddCommand(newHeaderCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd(app))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" && c.HasParent() && !c.Parent().HasParent() {
			return true
		}
	}
	return false
}

func parseColorMode(value string) ui.ColorMode {
	mode, err := ui.ParseColorMode(value)
	if err != nil {
		return ui.ColorAuto
	}
	return mode
}
