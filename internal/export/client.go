package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/salmonumbrella/apiform/internal/debug"
	clierrors "github.com/salmonumbrella/apiform/internal/errors"
)

// DefaultBaseURL is where the export service is expected to listen.
const DefaultBaseURL = "http://localhost:3001"

// Download is the file returned by the export service.
type Download struct {
	Format      Format `json:"format"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"-"`
}

// Client posts export requests to the export service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the service at baseURL (DefaultBaseURL if empty).
func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// WithHTTPClient sets a custom HTTP client
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// WithTimeout bounds each request. Zero means no timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}

// WithDebugOutput enables debug mode for HTTP request/response logging to the provided writer.
func (c *Client) WithDebugOutput(w io.Writer) *Client {
	baseTransport := c.httpClient.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	c.httpClient.Transport = debug.NewDebugTransport(baseTransport, w)
	return c
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoint returns the URL a format is posted to.
func (c *Client) Endpoint(f Format) string {
	return c.baseURL + "/api/" + string(f)
}

// Export posts req and returns the file body. A non-2xx status or a network
// failure is an *errors.ExportError; there is no retry.
func (c *Client) Export(ctx context.Context, f Format, req Request) (*Download, error) {
	dl, err := c.export(ctx, f, req)
	if err != nil {
		slog.Warn("export failed", "format", f, "endpoint", c.Endpoint(f), "status", clierrors.StatusCode(err), "error", err)
		return nil, err
	}
	slog.Debug("exported data", "format", f, "bytes", len(dl.Body), "content_type", dl.ContentType)
	return dl, nil
}

func (c *Client) export(ctx context.Context, f Format, req Request) (*Download, error) {
	endpoint := c.Endpoint(f)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &clierrors.ExportError{Format: string(f), Err: fmt.Errorf("failed to marshal request body: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &clierrors.ExportError{Format: string(f), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &clierrors.ExportError{Format: string(f), Err: clierrors.WrapContext(http.MethodPost, endpoint, 0, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &clierrors.ExportError{Format: string(f), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &clierrors.ExportError{Format: string(f), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension("." + f.Extension())
	}

	return &Download{
		Format:      f,
		Filename:    f.Filename(),
		ContentType: contentType,
		Body:        body,
	}, nil
}

// Save writes the download into dir and returns the file path.
func (d *Download) Save(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, d.Filename)
	if err := os.WriteFile(path, d.Body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
