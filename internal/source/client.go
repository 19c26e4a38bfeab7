// Package source fetches the JSON document the form displays.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/salmonumbrella/apiform/internal/dataset"
	"github.com/salmonumbrella/apiform/internal/debug"
	clierrors "github.com/salmonumbrella/apiform/internal/errors"
)

const (
	// DefaultURL is the endpoint the form starts with.
	DefaultURL = "https://v2.jokeapi.dev/joke/Any?lang=de"

	defaultUserAgent = "apiform"
	maxBodyBytes     = 32 << 20
)

// Options adjusts how a response body becomes a dataset.
type Options struct {
	// Records selects the rows inside an envelope, e.g. "$.results".
	Records string
	// RequireField drops rows without this key.
	RequireField string
}

// Result is a successful fetch.
type Result struct {
	URL         string           `json:"url"`
	StatusCode  int              `json:"status"`
	ContentType string           `json:"content_type,omitempty"`
	Body        []byte           `json:"-"`
	Dataset     *dataset.Dataset `json:"-"`
}

// Client issues GET requests against arbitrary JSON endpoints.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a client without a request timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
		userAgent:  defaultUserAgent,
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

// WithUserAgent overrides the User-Agent sent when the caller did not set one.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// WithDebug enables debug mode for HTTP request/response logging
func (c *Client) WithDebug() *Client {
	return c.WithDebugOutput(os.Stderr)
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

// Fetch issues one GET with the filtered header map and parses the body.
// Network failures, non-2xx statuses, and unparseable bodies all come back as
// a *errors.FetchError. There is no retry.
func (c *Client) Fetch(ctx context.Context, rawURL string, headers HeaderPairs, opts Options) (*Result, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	res, err := c.fetch(ctx, target, headers, opts)
	if err != nil {
		slog.Warn("fetch failed", "url", target, "status", clierrors.StatusCode(err), "error", err)
		return nil, err
	}
	slog.Debug("fetched data", "url", target, "status", res.StatusCode, "rows", res.Dataset.Len(), "columns", len(res.Dataset.Fields))
	return res, nil
}

func (c *Client) fetch(ctx context.Context, target string, headers HeaderPairs, opts Options) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &clierrors.FetchError{URL: target, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for k, v := range headers.Map() {
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &clierrors.FetchError{URL: target, Err: clierrors.WrapContext(http.MethodGet, target, 0, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &clierrors.FetchError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &clierrors.FetchError{URL: target, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	ds, err := Decode(body, opts)
	if err != nil {
		return nil, &clierrors.FetchError{URL: target, Err: err}
	}

	return &Result{
		URL:         target,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Dataset:     ds,
	}, nil
}

// Decode turns a JSON document into a dataset using opts. It is also used for
// data supplied from a file instead of a fetch.
func Decode(body []byte, opts Options) (*dataset.Dataset, error) {
	ds, err := dataset.ParseAt(body, opts.Records)
	if err != nil {
		return nil, err
	}
	if opts.RequireField != "" {
		ds = ds.RequireField(opts.RequireField)
	}
	return ds, nil
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", clierrors.NewUserError("API URL is required", "Pass a URL argument or set default_url with 'apiform config set default_url <url>'")
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", clierrors.NewUserError(
			fmt.Sprintf("invalid API URL %q", raw),
			"Use an absolute http:// or https:// URL",
		)
	}
	return trimmed, nil
}
