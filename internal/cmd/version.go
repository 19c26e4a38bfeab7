package cmd

import (
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/apiform/internal/update"
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	Latest    string `json:"latest,omitempty"`
	Update    bool   `json:"update_available,omitempty"`
}

func newVersionCmd(app *App) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Example: `  apiform version
  apiform version --check -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			info := versionInfo{
				Version:   app.Version,
				Commit:    app.Commit,
				BuildTime: app.BuildTime,
			}

			if check {
				latest, err := update.NewChecker().Latest(ctx)
				if latest.Version == "" && err != nil {
					return err
				}
				info.Latest = latest.Version
				info.Update = update.IsNewer(app.Version, latest.Version)
			}

			return printerForContext(ctx).Print(ctx, info)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Look up the latest release on GitHub")
	return cmd
}
