// Package cmdutil holds small helpers shared by CLI commands.
package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// MaxInputSize is the largest --input document accepted (32MB).
const MaxInputSize = 32 << 20

// ReadInput reads a JSON document from a file path, or from stdin when
// path is "-". A double-serialized JSON string is unwrapped once and NDJSON
// (one value per line) becomes an array.
func ReadInput(path string, stdin io.Reader) ([]byte, error) {
	raw, err := ReadInputSource(path, stdin)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, fmt.Errorf("input %s is empty", describeSource(path))
	}
	if len(raw) > MaxInputSize {
		return nil, fmt.Errorf("input %s exceeds maximum size of %d bytes", describeSource(path), MaxInputSize)
	}
	if joined, ok := JoinNDJSON(raw); ok {
		return []byte(joined), nil
	}
	return []byte(NormalizeJSONInput(raw)), nil
}

// JoinNDJSON turns newline-delimited JSON into a JSON array, keeping each
// line's bytes as-is. It reports false when raw is a single JSON document
// or any non-blank line is not valid JSON.
func JoinNDJSON(raw string) (string, bool) {
	if json.Valid([]byte(raw)) {
		return "", false
	}
	var items []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			return "", false
		}
		items = append(items, line)
	}
	if len(items) < 2 {
		return "", false
	}
	return "[" + strings.Join(items, ",") + "]", true
}

// NormalizeJSONInput unwraps double-serialized JSON strings when possible.
// If the input is a JSON string containing JSON, it returns the inner JSON.
//
// This handles documents that were quoted on the way in, such as
//   - Shell escaping issues: "{\"key\": \"value\"}" -> {"key": "value"}
//   - Copy-paste from string literals: "[1, 2, 3]" -> [1, 2, 3]
//
// Only one level is unwrapped. Anything else is returned unchanged.
func NormalizeJSONInput(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
		return raw
	}

	innerTrimmed := strings.TrimSpace(inner)
	if innerTrimmed == "" {
		return raw
	}
	if json.Valid([]byte(innerTrimmed)) {
		return innerTrimmed
	}

	return raw
}

// ReadInputSource reads input from a file path or stdin when path is "-".
// A nil stdin falls back to os.Stdin.
func ReadInputSource(path string, stdin io.Reader) (string, error) {
	if path == "" {
		return "", fmt.Errorf("input file path is required")
	}
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func describeSource(path string) string {
	if path == "-" {
		return "from stdin"
	}
	return fmt.Sprintf("file %q", path)
}
