package cmd

import (
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/apiform/internal/ui"
)

func newFetchCmd() *cobra.Command {
	var flags dataFlags

	cmd := &cobra.Command{
		Use:     "fetch [url]",
		Aliases: []string{"get"},
		Short:   "Fetch JSON from an endpoint and print it as a table",
		Long: `Fetch issues one GET request and prints the rows of the JSON response.

An array of objects becomes one row per object; a single object becomes one
row. The columns are the fields of the first row, in the order the endpoint
returned them. Use --hide, --only and --invert to change which columns are
shown.

Without a URL argument the default_url from the config file (or APIFORM_URL)
is used.`,
		Example: `  apiform fetch https://api.example.com/users
  apiform fetch https://api.example.com/users -H "Authorization: Bearer $TOKEN"
  apiform fetch https://api.example.com/search --records '$.results' --hide id
  apiform fetch --input users.json -o table
  curl -s https://api.example.com/users | apiform fetch --input - --only name,email`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := flags.load(ctx, args)
			if err != nil {
				return err
			}
			if data.DS.IsEmpty() {
				ui.FromContext(ctx).Info("No rows returned")
			}
			return printerForContext(ctx).PrintDataset(ctx, data.DS, data.Vis)
		},
	}

	flags.register(cmd)
	return cmd
}

func newColumnsCmd() *cobra.Command {
	var flags dataFlags

	cmd := &cobra.Command{
		Use:     "columns [url]",
		Aliases: []string{"cols"},
		Short:   "List the columns of an endpoint and whether each is visible",
		Long: `Columns fetches the endpoint like 'fetch' and prints one line per column
with its visibility after --only, --hide and --invert are applied.`,
		Example: `  apiform columns https://api.example.com/users
  apiform columns https://api.example.com/users --hide email --invert -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := flags.load(ctx, args)
			if err != nil {
				return err
			}
			return printerForContext(ctx).Print(ctx, data.Vis.Columns())
		},
	}

	flags.register(cmd)
	return cmd
}
