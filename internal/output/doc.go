// Package output renders command results for the terminal and for scripts.
//
// Formats:
//   - text: aligned columns for tables, "key: value" lines for single objects (default)
//   - table: boxed table via go-pretty
//   - json: pretty-printed JSON (compact with --compact-json)
//   - ndjson: one JSON value per line
//   - yaml: YAML
//
// The format, --query (jq) and --jsonpath are injected into the context by
// the root command and read back by the Printer:
//
//	ctx := output.WithFormat(cmd.Context(), format)
//	printer := output.NewPrinter(os.Stdout, output.FormatFromContext(ctx))
//	return printer.Print(ctx, data)
//
// Fetched data goes through PrintDataset, which keeps the source column order
// for text and table output and emits the visible fields as records for the
// structured formats.
package output
