package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/salmonumbrella/apiform/internal/config"
	"github.com/salmonumbrella/apiform/internal/secrets"
)

type runResult struct {
	stdout string
	stderr string
	err    error
}

// isolate points config and keyring at test-local state.
func isolate(t *testing.T) (string, *secrets.MockKeyring) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	orig := config.SetConfigPathFunc(func() (string, error) { return path, nil })
	t.Cleanup(func() { config.SetConfigPathFunc(orig) })

	mock, restore := secrets.UseMock()
	t.Cleanup(restore)

	for _, env := range []string{config.EnvURL, config.EnvExportURL, config.EnvOutput, "NO_COLOR"} {
		t.Setenv(env, "")
	}
	return path, mock
}

func runWithStdin(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := &App{
		Stdout:    &stdout,
		Stderr:    &stderr,
		Stdin:     strings.NewReader(stdin),
		Version:   "1.2.3",
		Commit:    "abc123",
		BuildTime: "2026-01-01",
	}
	err := app.Execute(context.Background(), args)
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func run(t *testing.T, args ...string) runResult {
	t.Helper()
	return runWithStdin(t, "", args...)
}
