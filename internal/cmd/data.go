package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/salmonumbrella/apiform/internal/cmdutil"
	"github.com/salmonumbrella/apiform/internal/config"
	"github.com/salmonumbrella/apiform/internal/dataset"
	"github.com/salmonumbrella/apiform/internal/debug"
	clierrors "github.com/salmonumbrella/apiform/internal/errors"
	"github.com/salmonumbrella/apiform/internal/secrets"
	"github.com/salmonumbrella/apiform/internal/source"
)

// loadedData is a dataset plus the column state the flags asked for.
type loadedData struct {
	URL string
	DS  *dataset.Dataset
	Vis dataset.Visibility
}

func (f *dataFlags) options() source.Options {
	return source.Options{
		Records:      strings.TrimSpace(f.records),
		RequireField: strings.TrimSpace(f.requireField),
	}
}

// load fetches (or reads --input) and applies --only, --hide and --invert
// in that order.
func (f *dataFlags) load(ctx context.Context, args []string) (*loadedData, error) {
	cfg := ConfigFromContext(ctx)
	url := resolveURL(cfg, args)

	var ds *dataset.Dataset
	if f.input != "" {
		body, err := cmdutil.ReadInput(f.input, stdinFromContext(ctx))
		if err != nil {
			return nil, err
		}
		ds, err = source.Decode(body, f.options())
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			url = ""
		}
	} else {
		headers, err := f.requestHeaders(cfg)
		if err != nil {
			return nil, err
		}
		res, err := newSourceClient(ctx, f.timeout).Fetch(ctx, url, headers, f.options())
		if err != nil {
			return nil, err
		}
		url = res.URL
		ds = res.Dataset
	}

	vis, err := f.visibility(ds)
	if err != nil {
		return nil, err
	}
	return &loadedData{URL: url, DS: ds, Vis: vis}, nil
}

func (f *dataFlags) visibility(ds *dataset.Dataset) (dataset.Visibility, error) {
	vis := dataset.ForDataset(ds)
	only := splitNames(f.only)
	hide := splitNames(f.hide)

	if unknown := vis.Unknown(append(append([]string{}, only...), hide...)...); len(unknown) > 0 {
		return dataset.Visibility{}, clierrors.UnknownColumnError(unknown, vis.Names())
	}
	if len(only) > 0 {
		vis = vis.Only(only...)
	}
	vis = vis.Hide(hide...)
	if f.invert {
		vis = vis.InvertAll()
	}
	return vis, nil
}

// requestHeaders merges profile pairs before the -H pairs, so -H wins.
func (f *dataFlags) requestHeaders(cfg *config.Config) (source.HeaderPairs, error) {
	pairs, err := source.ParseHeaderPairs(f.headers)
	if err != nil {
		return nil, &clierrors.ValidationError{Field: "header", Message: err.Error()}
	}
	profile, err := profileHeaders(cfg, f.profile)
	if err != nil {
		return nil, err
	}
	return profile.Append(pairs...), nil
}

func profileHeaders(cfg *config.Config, profile string) (source.HeaderPairs, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return nil, nil
	}
	names, err := cfg.ProfileHeaders(profile)
	if err != nil {
		return nil, clierrors.WrapUserError(err,
			fmt.Sprintf("unknown header profile %q", profile),
			"Run: apiform header set "+profile+" <key> <value>",
		)
	}
	return secrets.LoadProfile(profile, names)
}

func resolveURL(cfg *config.Config, args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0]
	}
	if u := cfg.GetURL(); u != "" {
		return u
	}
	return source.DefaultURL
}

func newSourceClient(ctx context.Context, timeout time.Duration) *source.Client {
	c := source.NewClient().WithTimeout(timeout)
	if debug.IsDebug(ctx) {
		c = c.WithDebugOutput(stderrFromContext(ctx))
	}
	return c
}

func splitNames(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
