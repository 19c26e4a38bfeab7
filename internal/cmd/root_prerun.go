package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/apiform/internal/config"
	"github.com/salmonumbrella/apiform/internal/debug"
	"github.com/salmonumbrella/apiform/internal/iocontext"
	"github.com/salmonumbrella/apiform/internal/output"
	"github.com/salmonumbrella/apiform/internal/ui"
)

type globalFlagInput struct {
	queryFlag     string
	jsonPathFlag  string
	quietFlag     bool
	failEmptyFlag bool
	compactJSON   bool
	errorFormat   string
}

type globalOptions struct {
	format          output.Format
	query           string
	queryNormalized bool
	jsonPathRaw     string
	quiet           bool
	failEmpty       bool
	compactJSON     bool
	errorFormat     string

	outputFlagSet bool
}

func parseGlobalOptions(cmd *cobra.Command, cfg *config.Config, stdout io.Writer, flags globalFlagInput) (globalOptions, error) {
	opts := globalOptions{
		quiet:       flags.quietFlag,
		failEmpty:   flags.failEmptyFlag,
		compactJSON: flags.compactJSON,
		errorFormat: flags.errorFormat,

		outputFlagSet: commandFlagChanged(cmd, "output"),
	}

	// --json, then --output, then APIFORM_OUTPUT/config, then JSON for pipes.
	formatStr, _ := cmd.Flags().GetString("output")
	jsonFlag, _ := cmd.Flags().GetBool("json")
	if jsonFlag && opts.outputFlagSet && !strings.EqualFold(strings.TrimSpace(formatStr), string(output.FormatJSON)) {
		return globalOptions{}, errOnlyOne("--json", "--output")
	}
	if jsonFlag {
		formatStr = string(output.FormatJSON)
	} else if !opts.outputFlagSet && cfg.GetOutput() != "" {
		formatStr = cfg.GetOutput()
	} else if !opts.outputFlagSet && !isTerminal(stdout) {
		formatStr = string(output.FormatJSON)
	}

	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return globalOptions{}, err
	}
	opts.format = format

	if !cmd.Flags().Changed("quiet") && !isTerminal(stdout) && opts.format.IsStructured() {
		opts.quiet = true
	}

	opts.query, opts.queryNormalized = output.NormalizeQuery(flags.queryFlag)
	opts.jsonPathRaw = strings.TrimSpace(flags.jsonPathFlag)

	return opts, nil
}

func validateGlobalOptions(opts *globalOptions) error {
	if opts.query != "" && opts.jsonPathRaw != "" {
		return errOnlyOne("--query", "--jsonpath")
	}
	if opts.query != "" {
		if err := output.ValidateQuery(opts.query); err != nil {
			return err
		}
	}
	if err := validateErrorFormat(opts.errorFormat); err != nil {
		return err
	}
	return nil
}

func buildRootContext(ctx context.Context, app *App, cfg *config.Config, debugMode bool, opts globalOptions) context.Context {
	ctx = withAppIO(ctx, app)
	ctx = output.WithFormat(ctx, opts.format)
	ctx = output.WithQuery(ctx, opts.query)
	ctx = debug.WithDebug(ctx, debugMode)
	ctx = WithConfig(ctx, cfg)

	ctx = output.WithQuiet(ctx, opts.quiet)
	ctx = output.WithJSONPath(ctx, opts.jsonPathRaw)
	ctx = output.WithFailEmpty(ctx, opts.failEmpty)
	ctx = output.WithCompactJSON(ctx, opts.compactJSON)
	ctx = WithErrorFormat(ctx, opts.errorFormat)
	ctx = ui.WithUI(ctx, ui.New(iocontext.StderrOrDefault(ctx, app.Stderr), parseColorMode(cfg.GetColor())).WithQuiet(opts.quiet))
	return ctx
}

func errOnlyOne(left, right string) error {
	return fmt.Errorf("use only one of %s or %s", left, right)
}

func commandFlagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}

	for current := cmd; current != nil; current = current.Parent() {
		if flag := current.Flags().Lookup(name); flag != nil && flag.Changed {
			return true
		}
		if flag := current.PersistentFlags().Lookup(name); flag != nil && flag.Changed {
			return true
		}
	}
	return false
}
