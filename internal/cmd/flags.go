package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagAlias registers a hidden flag alias that shares the same underlying value.
// The alias is hidden from help output.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		return
	}
	fs.AddFlag(&pflag.Flag{
		Name:        alias,
		Usage:       f.Usage,
		Value:       f.Value,
		DefValue:    f.DefValue,
		NoOptDefVal: f.NoOptDefVal,
		Hidden:      true,
	})
}

// dataFlags selects where rows come from and which columns are visible.
type dataFlags struct {
	headers      []string
	profile      string
	hide         []string
	only         []string
	invert       bool
	records      string
	requireField string
	input        string
	timeout      time.Duration
}

func (f *dataFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringArrayVarP(&f.headers, "header", "H", nil, "Request header as 'Key: Value' (repeatable)")
	fs.StringVar(&f.profile, "profile", "", "Send the headers stored in this profile first")
	fs.StringSliceVar(&f.hide, "hide", nil, "Toggle these columns off (repeatable or comma-separated)")
	fs.StringSliceVar(&f.only, "only", nil, "Show only these columns")
	fs.BoolVar(&f.invert, "invert", false, "Invert the column selection")
	fs.StringVar(&f.records, "records", "", "JSONPath to the rows inside the response (e.g. $.data)")
	fs.StringVar(&f.requireField, "require-field", "", "Drop rows that lack this field")
	fs.StringVar(&f.input, "input", "", "Read JSON from a file ('-' for stdin) instead of fetching")
	fs.DurationVar(&f.timeout, "timeout", 0, "Request timeout (0 = none)")

	flagAlias(fs, "require-field", "rf")
}
