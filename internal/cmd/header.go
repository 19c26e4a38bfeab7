package cmd

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/apiform/internal/cmdutil"
	"github.com/salmonumbrella/apiform/internal/debug"
	clierrors "github.com/salmonumbrella/apiform/internal/errors"
	"github.com/salmonumbrella/apiform/internal/secrets"
	"github.com/salmonumbrella/apiform/internal/ui"
)

type headerEntry struct {
	Profile  string `json:"profile"`
	Header   string `json:"header"`
	Value    string `json:"value"`
	Stored   bool   `json:"stored"`
	InConfig bool   `json:"in_config"`
}

func newHeaderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "header",
		Aliases: []string{"headers"},
		Short:   "Manage header profiles stored in the system keyring",
		Long: `Header profiles keep API keys out of shell history. Values live in the
system keyring; the config file records which header names each profile has.

Pass --profile NAME to fetch, columns, export, serve or mcp to send a
profile's headers before any -H pairs.`,
	}
	cmd.AddCommand(newHeaderSetCmd())
	cmd.AddCommand(newHeaderListCmd())
	cmd.AddCommand(newHeaderRemoveCmd())
	return cmd
}

func newHeaderSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <profile> <key> <value>",
		Short: "Store a header value for a profile",
		Long: `Store a header value in the keyring and record the header name in the
config file. Use '-' as the value to read it from stdin.`,
		Example: `  apiform header set prod Authorization "Bearer $TOKEN"
  pass show api/key | apiform header set prod X-Api-Key -`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profile, key, value := strings.TrimSpace(args[0]), strings.TrimSpace(args[1]), args[2]

			if value == "-" {
				read, err := cmdutil.ReadInputSource("-", stdinFromContext(ctx))
				if err != nil {
					return err
				}
				value = read
			}

			cfg := ConfigFromContext(ctx)
			if err := cfg.AddProfileHeader(profile, key); err != nil {
				return &clierrors.ValidationError{Field: "profile", Message: err.Error()}
			}
			if err := secrets.StoreHeader(profile, key, value); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			ui.FromContext(ctx).Success("Stored %s for profile %s", key, profile)
			return printerForContext(ctx).Print(ctx, headerEntry{
				Profile:  profile,
				Header:   key,
				Value:    debug.Redact(value),
				Stored:   true,
				InConfig: true,
			})
		},
	}
}

func newHeaderListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list [profile]",
		Aliases: []string{"ls"},
		Short:   "List stored headers (values redacted)",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := ConfigFromContext(ctx)

			profiles := cfg.ListProfiles()
			if len(args) == 1 {
				if _, err := cfg.ProfileHeaders(args[0]); err != nil {
					return clierrors.NewUserError(
						fmt.Sprintf("profile %q not found", args[0]),
						"Run: apiform header list",
					)
				}
				profiles = []string{args[0]}
			}

			var entries []headerEntry
			for _, profile := range profiles {
				names, _ := cfg.ProfileHeaders(profile)
				for _, name := range names {
					entry := headerEntry{Profile: profile, Header: name, InConfig: true}
					value, err := secrets.GetHeader(profile, name)
					if err == nil {
						entry.Value = debug.Redact(value)
						entry.Stored = true
					}
					entries = append(entries, entry)
				}
			}
			entries = append(entries, orphanedHeaders(profiles, entries, len(args) == 1)...)

			return printerForContext(ctx).Print(ctx, entries)
		},
	}
}

// orphanedHeaders finds keyring values the config file no longer lists.
func orphanedHeaders(profiles []string, known []headerEntry, onlyListed bool) []headerEntry {
	stored, err := secrets.StoredProfiles()
	if err != nil {
		slog.Debug("skipping keyring scan", "error", err)
		return nil
	}

	seen := make(map[string]bool, len(known))
	for _, e := range known {
		seen[e.Profile+"\x00"+e.Header] = true
	}

	names := make([]string, 0, len(stored))
	for profile := range stored {
		if onlyListed && !slices.Contains(profiles, profile) {
			continue
		}
		names = append(names, profile)
	}
	sort.Strings(names)

	var out []headerEntry
	for _, profile := range names {
		headers := slices.Clone(stored[profile])
		sort.Strings(headers)
		for _, h := range headers {
			if seen[profile+"\x00"+h] {
				continue
			}
			out = append(out, headerEntry{Profile: profile, Header: h, Value: "(not in config)", Stored: true})
		}
	}
	return out
}

func newHeaderRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <profile> <key>",
		Aliases: []string{"rm"},
		Short:   "Remove a stored header",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profile, key := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])

			if err := secrets.DeleteHeader(profile, key); err != nil {
				return err
			}
			cfg := ConfigFromContext(ctx)
			if err := cfg.RemoveProfileHeader(profile, key); err == nil {
				if err := cfg.Save(); err != nil {
					return fmt.Errorf("failed to save config: %w", err)
				}
			} else {
				slog.Debug("header not in config", "profile", profile, "header", key, "error", err)
			}

			ui.FromContext(ctx).Success("Removed %s from profile %s", key, profile)
			return printerForContext(ctx).Print(ctx, map[string]interface{}{
				"status":  "removed",
				"profile": profile,
				"header":  key,
			})
		},
	}
}
