package cmdutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadInputSource(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "rows.json")
	if err := os.WriteFile(testFile, []byte("  [{\"a\":1}]  \n"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		stdin   string
		want    string
		wantErr string
	}{
		{name: "file is trimmed", path: testFile, want: `[{"a":1}]`},
		{name: "stdin", path: "-", stdin: " {\"x\": true}\n", want: `{"x": true}`},
		{name: "empty path", path: "", wantErr: "input file path is required"},
		{name: "missing file", path: filepath.Join(tmpDir, "nope.json"), wantErr: "failed to read file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadInputSource(tt.path, strings.NewReader(tt.stdin))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadInput(t *testing.T) {
	t.Run("unwraps quoted json", func(t *testing.T) {
		got, err := ReadInput("-", strings.NewReader(`"[{\"a\":1}]"`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != `[{"a":1}]` {
			t.Errorf("got %s", got)
		}
	})

	t.Run("empty stdin", func(t *testing.T) {
		_, err := ReadInput("-", strings.NewReader("  \n"))
		if err == nil || !strings.Contains(err.Error(), "from stdin is empty") {
			t.Fatalf("expected empty input error, got %v", err)
		}
	})
}

func TestNormalizeJSONInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain object", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "quoted array", raw: `"[1, 2]"`, want: `[1, 2]`},
		{name: "quoted non-json string", raw: `"hello"`, want: `"hello"`},
		{name: "blank", raw: "  ", want: "  "},
		{name: "quoted blank", raw: `"  "`, want: `"  "`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeJSONInput(tt.raw); got != tt.want {
				t.Errorf("NormalizeJSONInput(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestJoinNDJSON(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "ndjson", raw: "{\"b\":1,\"a\":2}\n\n{\"b\":3}\n", want: `[{"b":1,"a":2},{"b":3}]`, wantOK: true},
		{name: "crlf", raw: "{\"a\":1}\r\n{\"a\":2}", want: `[{"a":1},{"a":2}]`, wantOK: true},
		{name: "single document", raw: "{\"a\":1}", wantOK: false},
		{name: "pretty array", raw: "[\n  {\"a\": 1}\n]", wantOK: false},
		{name: "broken line", raw: "{\"a\":1}\n{oops", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := JoinNDJSON(tt.raw)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("JoinNDJSON() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestReadInput_NDJSON(t *testing.T) {
	got, err := ReadInput("-", strings.NewReader("{\"id\":1}\n{\"id\":2}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `[{"id":1},{"id":2}]` {
		t.Errorf("got %s", got)
	}
}
