package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/salmonumbrella/apiform/internal/config"
)

func TestConfigSetShowPath(t *testing.T) {
	path, _ := isolate(t)

	res := run(t, "config", "path")
	if res.err != nil {
		t.Fatalf("path: %v", res.err)
	}
	if !strings.Contains(res.stdout, path) || !strings.Contains(res.stdout, "(file does not exist)") {
		t.Errorf("unexpected path output %q", res.stdout)
	}

	res = run(t, "config", "show")
	if res.err != nil {
		t.Fatalf("show: %v", res.err)
	}
	if !strings.Contains(res.stdout, "No configuration file found") {
		t.Errorf("unexpected show output %q", res.stdout)
	}

	res = run(t, "config", "set", "export_url", "http://exports.test:3001")
	if res.err != nil {
		t.Fatalf("set: %v", res.err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ExportURL != "http://exports.test:3001" {
		t.Errorf("export_url = %q", cfg.ExportURL)
	}

	res = run(t, "config", "show")
	if !strings.Contains(res.stdout, "export_url: http://exports.test:3001") {
		t.Errorf("unexpected show output %q", res.stdout)
	}
}

func TestConfigSet_Invalid(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"config", "set", "colour", "never"}},
		{"bad output", []string{"config", "set", "output", "xml"}},
		{"bad url", []string{"config", "set", "default_url", "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, tt.args...)
			if ExitCode(res.err) != ExitUser {
				t.Fatalf("expected user error, got %v", res.err)
			}
		})
	}
}

func TestConfig_BrokenFileStillFixable(t *testing.T) {
	path, _ := isolate(t)
	if err := os.WriteFile(path, []byte("output: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	res := run(t, "fetch", "--input", "-")
	if res.err == nil || !strings.Contains(res.stderr, "failed to load config") {
		t.Fatalf("expected config load failure, got %v (stderr %q)", res.err, res.stderr)
	}

	res = run(t, "config", "path")
	if res.err != nil {
		t.Fatalf("config commands should not need a valid file: %v", res.err)
	}
}
