package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// saveAndRestoreLogger saves the current default logger and restores it on cleanup.
func saveAndRestoreLogger(t *testing.T) {
	t.Helper()
	original := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(original)
	})
}

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{name: "debug", debug: true, wantDebug: true},
		{name: "normal", debug: false, wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saveAndRestoreLogger(t)

			var buf bytes.Buffer
			Setup(tt.debug, &buf)

			slog.Debug("debug message")
			slog.Info("info message", "key", "value")

			out := buf.String()
			if got := strings.Contains(out, "debug message"); got != tt.wantDebug {
				t.Errorf("debug message present = %v, want %v: %s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "key=value") {
				t.Errorf("expected key=value in output, got: %s", out)
			}
		})
	}
}

func TestSetupJSON(t *testing.T) {
	saveAndRestoreLogger(t)

	var buf bytes.Buffer
	SetupJSON(false, &buf)
	slog.Info("fetched data", "rows", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, buf.String())
	}
	if entry["msg"] != "fetched data" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["rows"] != float64(3) {
		t.Errorf("rows = %v", entry["rows"])
	}
}

func TestNew_RedactsSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{})
	logger.Info("request", "api_key", "sk-1234567890abcdef", "url", "https://example.com")

	out := buf.String()
	if strings.Contains(out, "sk-1234567890abcdef") {
		t.Errorf("secret leaked: %s", out)
	}
	if !strings.Contains(out, "url=https://example.com") {
		t.Errorf("non-sensitive attr should be kept: %s", out)
	}
}

func TestNew_NilWriter(t *testing.T) {
	if New(nil, Options{}) == nil {
		t.Fatal("New(nil) returned nil")
	}
}
