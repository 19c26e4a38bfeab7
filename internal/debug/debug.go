package debug

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

type contextKey struct{}

// WithDebug injects the debug flag into the context
func WithDebug(ctx context.Context, debug bool) context.Context {
	return context.WithValue(ctx, contextKey{}, debug)
}

// IsDebug returns true if debug mode is enabled in the context
func IsDebug(ctx context.Context) bool {
	if v, ok := ctx.Value(contextKey{}).(bool); ok {
		return v
	}
	return false
}

// DebugTransport wraps http.RoundTripper to log requests/responses when debug mode is enabled
type DebugTransport struct {
	Transport http.RoundTripper
	Output    io.Writer
}

// NewDebugTransport creates a new DebugTransport with the given base transport
// If output is nil, it defaults to os.Stderr
func NewDebugTransport(base http.RoundTripper, output io.Writer) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if output == nil {
		output = os.Stderr
	}
	return &DebugTransport{
		Transport: base,
		Output:    output,
	}
}

// sensitiveMarkers flags header names whose values are redacted. User supplied
// header pairs are usually API keys under arbitrary names.
var sensitiveMarkers = []string{"auth", "key", "token", "secret", "password", "cookie", "session"}

// IsSensitiveHeader reports whether a header value should be redacted in logs.
func IsSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range sensitiveMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Redact keeps only the last 4 characters of a secret value.
func Redact(val string) string {
	if strings.HasPrefix(val, "Bearer ") {
		return "Bearer " + Redact(val[7:])
	}
	if len(val) > 10 {
		return "..." + val[len(val)-4:]
	}
	return "[redacted]"
}

// RoundTrip implements http.RoundTripper
func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	_, _ = fmt.Fprintf(t.Output, "\n--> %s %s\n", req.Method, req.URL)
	t.writeHeaders(req.Header)

	if req.Body != nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			_, _ = fmt.Fprintf(t.Output, "    [ERROR reading request body: %v]\n", err)
		} else {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes)) // Restore body for actual request
			if len(bodyBytes) > 0 {
				_, _ = fmt.Fprintf(t.Output, "    Body: %s\n", truncate(bodyBytes, 500))
			}
		}
	}

	resp, err := t.Transport.RoundTrip(req)

	duration := time.Since(start)

	if err != nil {
		_, _ = fmt.Fprintf(t.Output, "<-- ERROR: %v (%s)\n\n", err, duration)
		return resp, err
	}

	_, _ = fmt.Fprintf(t.Output, "<-- %s (%s)\n", resp.Status, duration)
	t.writeHeaders(resp.Header)

	if resp.Body != nil {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			_, _ = fmt.Fprintf(t.Output, "    [ERROR reading response body: %v]\n\n", err)
		} else {
			resp.Body = io.NopCloser(bytes.NewReader(bodyBytes)) // Restore body for caller
			if len(bodyBytes) > 0 {
				if isBinary(resp.Header.Get("Content-Type")) {
					_, _ = fmt.Fprintf(t.Output, "    Body: [%d bytes binary]\n", len(bodyBytes))
				} else {
					_, _ = fmt.Fprintf(t.Output, "    Body: %s\n", truncate(bodyBytes, 1000))
				}
			}
		}
	}

	_, _ = fmt.Fprintln(t.Output)

	return resp, err
}

func (t *DebugTransport) writeHeaders(h http.Header) {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		values := h[key]
		if IsSensitiveHeader(key) && len(values) > 0 {
			_, _ = fmt.Fprintf(t.Output, "    %s: %s\n", key, Redact(values[0]))
			continue
		}
		_, _ = fmt.Fprintf(t.Output, "    %s: %s\n", key, strings.Join(values, ", "))
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "... [truncated]"
	}
	return string(b)
}

func isBinary(contentType string) bool {
	ct := strings.ToLower(contentType)
	switch {
	case ct == "":
		return false
	case strings.Contains(ct, "json"), strings.HasPrefix(ct, "text/"), strings.Contains(ct, "xml"):
		return false
	default:
		return true
	}
}
